package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"

	"github.com/eleven-am/fiadb/internal/logger"
)

// Plan is the set of statements that bring a live database to the catalog
type Plan struct {
	Changes    []schema.Change
	Statements []string
}

// Destructive reports how many planned changes drop objects, with descriptions
func (p *Plan) Destructive() (int, []string) {
	return CountDestructiveChanges(p.Changes)
}

// PlanChanges inspects the schema of the desired realm in db with the Atlas
// postgres driver and plans the statements that make it match.
func PlanChanges(ctx context.Context, db schema.ExecQuerier, desired *schema.Realm) (*Plan, error) {
	drv, err := postgres.Open(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open atlas driver: %w", err)
	}

	var names []string
	for _, s := range desired.Schemas {
		names = append(names, s.Name)
	}

	current, err := drv.InspectRealm(ctx, &schema.InspectRealmOption{Schemas: names})
	if err != nil {
		return nil, fmt.Errorf("failed to inspect current schema: %w", err)
	}

	changes, err := drv.RealmDiff(current, desired)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate diff: %w", err)
	}

	plan := &Plan{Changes: changes, Statements: []string{}}
	if len(changes) == 0 {
		logger.Atlas().Info("database matches catalog")
		return plan, nil
	}

	plan.Statements, err = GenerateSQL(ctx, drv, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}

	logger.Atlas().Info("planned changes", "changes", len(changes), "statements", len(plan.Statements))
	return plan, nil
}

// TxBeginner starts transactions; *sql.DB and *sqlx.DB satisfy it
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Apply executes the planned statements in one transaction. Plans with
// destructive changes are refused unless allowDestructive is set.
func Apply(ctx context.Context, db TxBeginner, plan *Plan, allowDestructive bool) error {
	if n, descriptions := plan.Destructive(); n > 0 && !allowDestructive {
		return fmt.Errorf("plan has %d destructive changes: %s", n, strings.Join(descriptions, "; "))
	}
	if len(plan.Statements) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for i, stmt := range plan.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logger.Atlas().Info("applied plan", "statements", len(plan.Statements))
	return nil
}

// GenerateSQL renders Atlas changes as SQL statements, comments first
func GenerateSQL(ctx context.Context, driver migrate.Driver, changes []schema.Change) ([]string, error) {
	plan, err := driver.PlanChanges(ctx, "fiadb", changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	statements := make([]string, len(plan.Changes))
	for i, change := range plan.Changes {
		statements[i] = change.Cmd
		if change.Comment != "" {
			statements[i] = fmt.Sprintf("-- %s\n%s", change.Comment, change.Cmd)
		}
	}
	return statements, nil
}

// IsDestructiveChange reports whether a change drops a table, column, index or key
func IsDestructiveChange(change schema.Change) bool {
	switch c := change.(type) {
	case *schema.DropTable, *schema.DropColumn, *schema.DropIndex, *schema.DropForeignKey:
		return true
	case *schema.ModifyTable:
		for _, sub := range c.Changes {
			if IsDestructiveChange(sub) {
				return true
			}
		}
	}
	return false
}

// DescribeChange gives a one-line summary of a change
func DescribeChange(change schema.Change) string {
	switch c := change.(type) {
	case *schema.AddSchema:
		return fmt.Sprintf("Create schema %s", c.S.Name)
	case *schema.AddTable:
		return fmt.Sprintf("Create table %s", c.T.Name)
	case *schema.DropTable:
		return fmt.Sprintf("Drop table %s", c.T.Name)
	case *schema.ModifyTable:
		return fmt.Sprintf("Modify table %s (%d changes)", c.T.Name, len(c.Changes))
	case *schema.AddColumn:
		return fmt.Sprintf("Add column %s", c.C.Name)
	case *schema.DropColumn:
		return fmt.Sprintf("Drop column %s", c.C.Name)
	case *schema.ModifyColumn:
		return fmt.Sprintf("Modify column %s", c.To.Name)
	case *schema.AddIndex:
		return fmt.Sprintf("Add index %s", c.I.Name)
	case *schema.DropIndex:
		return fmt.Sprintf("Drop index %s", c.I.Name)
	case *schema.AddForeignKey:
		return fmt.Sprintf("Add foreign key %s", c.F.Symbol)
	case *schema.DropForeignKey:
		return fmt.Sprintf("Drop foreign key %s", c.F.Symbol)
	default:
		return fmt.Sprintf("Change type %T", change)
	}
}

// CountDestructiveChanges counts and describes the destructive changes
func CountDestructiveChanges(changes []schema.Change) (count int, descriptions []string) {
	for _, change := range changes {
		if IsDestructiveChange(change) {
			count++
			descriptions = append(descriptions, DescribeChange(change))
		}
	}
	return count, descriptions
}
