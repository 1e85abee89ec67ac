// Package dbtest provides a PostgreSQL database for integration tests. A
// container is started with testcontainers unless FIADB_TEST_DATABASE_URL
// points at an existing server. Every TestDB works in its own schema.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/eleven-am/fiadb/internal/database"
)

// EnvURL names an existing server to use instead of a container
const EnvURL = "FIADB_TEST_DATABASE_URL"

const image = "postgres:16-alpine"

// TestDB is a connection scoped to a fresh schema
type TestDB struct {
	DB     *sqlx.DB
	URL    string
	Schema string
	t      testing.TB
}

var (
	containerOnce sync.Once
	container     *postgres.PostgresContainer
	containerURL  string
	containerErr  error
)

// New connects to the test server and creates an empty schema that is dropped
// when the test ends. The test is skipped in short mode.
func New(t testing.TB) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	url, err := serverURL(ctx)
	if err != nil {
		t.Fatalf("Failed to start postgres: %v", err)
	}

	db, err := database.NewConfig(database.DriverPostgres, url).Connect(ctx)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	tdb := &TestDB{
		DB:     db,
		URL:    url,
		Schema: fmt.Sprintf("fiadb_test_%d", time.Now().UnixNano()),
		t:      t,
	}
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA "+database.QuoteIdentifier(tdb.Schema)); err != nil {
		db.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(tdb.Cleanup)
	return tdb
}

// serverURL returns $FIADB_TEST_DATABASE_URL or the URL of a shared container
func serverURL(ctx context.Context) (string, error) {
	if url := os.Getenv(EnvURL); url != "" {
		return url, nil
	}

	containerOnce.Do(func() {
		ctr, err := postgres.Run(ctx, image,
			postgres.WithDatabase("fiadb"),
			postgres.WithUsername("fia"),
			postgres.WithPassword("fia"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			containerErr = err
			return
		}
		container = ctr
		containerURL, containerErr = ctr.ConnectionString(ctx, "sslmode=disable")
	})
	return containerURL, containerErr
}

// Terminate stops the shared container. Call it from TestMain after m.Run.
func Terminate() {
	if container == nil {
		return
	}
	if err := container.Terminate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate postgres container: %v\n", err)
	}
	container = nil
}

// Cleanup drops the schema and closes the connection
func (tdb *TestDB) Cleanup() {
	defer tdb.DB.Close()

	stmt := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", database.QuoteIdentifier(tdb.Schema))
	if _, err := tdb.DB.Exec(stmt); err != nil {
		tdb.t.Logf("Failed to drop test schema: %v", err)
	}
}

// ExecuteSQL runs a script of statements in one round trip
func (tdb *TestDB) ExecuteSQL(script string) error {
	if _, err := tdb.DB.Exec(script); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// TableExists checks if a table exists in the test schema
func (tdb *TestDB) TableExists(tableName string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1
			AND table_name = $2
		)
	`
	err := tdb.DB.Get(&exists, query, tdb.Schema, tableName)
	return exists, err
}

// ColumnType returns the data type of a column
func (tdb *TestDB) ColumnType(tableName, columnName string) (string, error) {
	var dataType string
	query := `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_schema = $1
		AND table_name = $2
		AND column_name = $3
	`
	err := tdb.DB.Get(&dataType, query, tdb.Schema, tableName, columnName)
	return dataType, err
}

// ConstraintExists checks if a constraint exists on a table
func (tdb *TestDB) ConstraintExists(tableName, constraintName string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name = $3
		)
	`
	err := tdb.DB.Get(&exists, query, tdb.Schema, tableName, constraintName)
	return exists, err
}

// AssertTableExists fails the test when a table is missing
func (tdb *TestDB) AssertTableExists(tableName string) {
	tdb.t.Helper()
	exists, err := tdb.TableExists(tableName)
	if err != nil {
		tdb.t.Fatalf("Failed to check table existence: %v", err)
	}
	if !exists {
		tdb.t.Errorf("Expected table %s.%s to exist", tdb.Schema, tableName)
	}
}

// AssertColumnType fails the test when a column has another data type
func (tdb *TestDB) AssertColumnType(tableName, columnName, expectedType string) {
	tdb.t.Helper()
	actual, err := tdb.ColumnType(tableName, columnName)
	if err != nil {
		tdb.t.Fatalf("Failed to get column type of %s.%s: %v", tableName, columnName, err)
	}
	if actual != expectedType {
		tdb.t.Errorf("Expected column %s.%s to have type %s, got %s", tableName, columnName, expectedType, actual)
	}
}

// AssertConstraintExists fails the test when a constraint is missing
func (tdb *TestDB) AssertConstraintExists(tableName, constraintName string) {
	tdb.t.Helper()
	exists, err := tdb.ConstraintExists(tableName, constraintName)
	if err != nil {
		tdb.t.Fatalf("Failed to check constraint existence: %v", err)
	}
	if !exists {
		tdb.t.Errorf("Expected constraint %s on table %s to exist", constraintName, tableName)
	}
}
