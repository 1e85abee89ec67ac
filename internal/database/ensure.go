package database

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/fiadb/internal/logger"
)

// EnsureDatabase creates the database named by the URL when it does not exist
func (cfg *Config) EnsureDatabase(ctx context.Context) error {
	dbName, adminURL, err := splitDatabase(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	db, err := sqlx.Open(cfg.Driver, adminURL)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer db.Close()

	var exists bool
	if err := db.GetContext(ctx, &exists, existsQuery, dbName); err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	logger.DB().Info("created database", "name", dbName)
	return nil
}

const existsQuery = `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`

// splitDatabase returns the database name of a URL or key=value DSN and the
// same connection string pointed at the postgres maintenance database
func splitDatabase(dsn string) (dbName, adminDSN string, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", err
		}
		dbName = strings.TrimPrefix(u.Path, "/")
		if dbName == "" {
			return "", "", fmt.Errorf("no database name in URL")
		}
		u.Path = "/postgres"
		return dbName, u.String(), nil
	}

	params := make(map[string]string)
	for _, kv := range strings.Fields(dsn) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			params[parts[0]] = parts[1]
		}
	}
	dbName = params["dbname"]
	if dbName == "" {
		return "", "", fmt.Errorf("no database name found in DSN")
	}
	params["dbname"] = "postgres"

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return dbName, strings.Join(parts, " "), nil
}
