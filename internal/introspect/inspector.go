// Package introspect reads table definitions from a live PostgreSQL copy of
// FIADB and compares them against the handbook catalog.
package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/logger"
)

// Inspector reads table metadata from information_schema
type Inspector struct {
	db     *sqlx.DB
	schema string
}

// NewInspector creates an inspector scoped to one database schema
func NewInspector(db *sqlx.DB, schema string) *Inspector {
	if schema == "" {
		schema = "public"
	}
	return &Inspector{db: db, schema: schema}
}

// Schema returns the inspected schema name
func (i *Inspector) Schema() string {
	return i.schema
}

type tableRow struct {
	Name    string  `db:"table_name"`
	Comment *string `db:"table_comment"`
}

func (i *Inspector) listTables(ctx context.Context) ([]tableRow, error) {
	var rows []tableRow
	if err := i.db.SelectContext(ctx, &rows, tablesQuery, i.schema); err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	return rows, nil
}

// TableNames lists the base tables of the schema
func (i *Inspector) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.listTables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for n, r := range rows {
		names[n] = r.Name
	}
	return names, nil
}

// Tables reads every base table of the schema
func (i *Inspector) Tables(ctx context.Context) ([]*TableSchema, error) {
	rows, err := i.listTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]*TableSchema, 0, len(rows))
	for _, r := range rows {
		table, err := i.Table(ctx, r.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to get table %s.%s: %w", i.schema, r.Name, err)
		}
		if r.Comment != nil {
			table.Comment = *r.Comment
		}
		tables = append(tables, table)
	}

	logger.DB().Info("inspected schema", "schema", i.schema, "tables", len(tables))
	return tables, nil
}

// Table reads one table. Handbook names are accepted and lower-cased.
func (i *Inspector) Table(ctx context.Context, name string) (*TableSchema, error) {
	name = strings.ToLower(name)
	table := &TableSchema{Name: name, Schema: i.schema}

	if err := i.db.SelectContext(ctx, &table.Columns, columnsQuery, i.schema, name); err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	if len(table.Columns) == 0 {
		return nil, catalog.TableNotFound(name)
	}

	var keys []*KeySchema
	if err := i.db.SelectContext(ctx, &keys, keysQuery, i.schema, name); err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	for _, k := range keys {
		if k.Type == "PRIMARY KEY" {
			table.PrimaryKey = k
		} else {
			table.UniqueKeys = append(table.UniqueKeys, k)
		}
	}

	if err := i.db.SelectContext(ctx, &table.ForeignKeys, foreignKeysQuery, i.schema, name); err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}

	logger.DB().Debug("inspected table", "table", name, "columns", len(table.Columns), "foreign_keys", len(table.ForeignKeys))
	return table, nil
}

// Definitions reads every table and converts it to a catalog definition
func (i *Inspector) Definitions(ctx context.Context) ([]*catalog.TableDefinition, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]*catalog.TableDefinition, len(tables))
	for n, t := range tables {
		defs[n] = ToDefinition(t)
	}
	return defs, nil
}

// ToDefinition converts a live table into handbook form with upper-case names
func ToDefinition(t *TableSchema) *catalog.TableDefinition {
	def := &catalog.TableDefinition{Name: strings.ToUpper(t.Name), Title: t.Comment}

	for _, col := range t.Columns {
		cd := &catalog.ColumnDefinition{Name: strings.ToUpper(col.Name), Type: OracleType(col)}
		if col.Comment != nil {
			cd.Label = *col.Comment
		}
		def.Columns = append(def.Columns, cd)
	}

	if t.PrimaryKey != nil {
		def.Keys = append(def.Keys, &catalog.KeyConstraint{
			Kind:    catalog.KeyPrimary,
			Name:    strings.ToUpper(t.PrimaryKey.Name),
			Columns: upper(t.PrimaryKey.Columns),
		})
	}
	for _, uk := range t.UniqueKeys {
		def.Keys = append(def.Keys, &catalog.KeyConstraint{
			Kind:    catalog.KeyUnique,
			Name:    strings.ToUpper(uk.Name),
			Columns: upper(uk.Columns),
		})
	}
	for _, fk := range t.ForeignKeys {
		def.Keys = append(def.Keys, &catalog.KeyConstraint{
			Kind:              catalog.KeyForeign,
			Name:              strings.ToUpper(fk.Name),
			Columns:           upper(fk.Columns),
			TargetTable:       strings.ToUpper(fk.ReferencedTable),
			ReferencedColumns: upper(fk.ReferencedColumns),
		})
	}
	return def
}

func upper(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToUpper(n)
	}
	return out
}
