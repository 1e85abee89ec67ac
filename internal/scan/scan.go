// Package scan reads rows from a loaded FIADB table and checks each one
// against the handbook definition.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/logger"
	"github.com/eleven-am/fiadb/internal/migrator"
	"github.com/eleven-am/fiadb/internal/registry"
	"github.com/eleven-am/fiadb/internal/validate"
)

// DefaultLimit caps a scan when no limit is given
const DefaultLimit = 1000

// Options narrow a scan
type Options struct {
	Schema string
	// Where filters on column equality, e.g. {"STATECD": 27}
	Where  map[string]any
	Limit  uint64
	Offset uint64
}

// RowReport holds the violations of one invalid row
type RowReport struct {
	Row        int                 `json:"row" yaml:"row"`
	Key        map[string]any      `json:"key,omitempty" yaml:"key,omitempty"`
	Violations validate.Violations `json:"violations" yaml:"violations"`
}

// Report summarises a scan run
type Report struct {
	ID          uuid.UUID   `json:"id" yaml:"id"`
	Table       string      `json:"table" yaml:"table"`
	Schema      string      `json:"schema" yaml:"schema"`
	StartedAt   time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time   `json:"finished_at" yaml:"finished_at"`
	RowsScanned int         `json:"rows_scanned" yaml:"rows_scanned"`
	RowsInvalid int         `json:"rows_invalid" yaml:"rows_invalid"`
	Rows        []RowReport `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Valid reports whether every scanned row passed
func (r *Report) Valid() bool {
	return r.RowsInvalid == 0
}

// Scanner pulls rows with squirrel-built queries and validates them
type Scanner struct {
	db        *sqlx.DB
	reg       *registry.Registry
	validator *validate.Validator
}

// NewScanner creates a scanner
func NewScanner(db *sqlx.DB, reg *registry.Registry, v *validate.Validator) *Scanner {
	if v == nil {
		v = validate.New(reg)
	}
	return &Scanner{db: db, reg: reg, validator: v}
}

// Query builds the SELECT for a scan. Columns are the catalog columns in
// handbook order and rows are ordered by the primary key.
func Query(def *catalog.TableDefinition, opts Options) (string, []interface{}, error) {
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = migrator.Identifier(c.Name)
	}

	from := migrator.Identifier(def.Name)
	if opts.Schema != "" && opts.Schema != migrator.DefaultSchema {
		from = migrator.Identifier(opts.Schema) + "." + from
	}

	builder := squirrel.Select(cols...).
		From(from).
		PlaceholderFormat(squirrel.Dollar)

	if len(opts.Where) > 0 {
		eq := squirrel.Eq{}
		for col, value := range opts.Where {
			if _, ok := def.Column(col); !ok {
				return "", nil, catalog.ColumnNotFound(def.Name, col)
			}
			eq[migrator.Identifier(col)] = value
		}
		builder = builder.Where(eq)
	}

	if pk := def.PrimaryKey(); pk != nil {
		order := make([]string, len(pk.Columns))
		for i, c := range pk.Columns {
			order[i] = migrator.Identifier(c)
		}
		builder = builder.OrderBy(order...)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	builder = builder.Limit(limit)
	if opts.Offset > 0 {
		builder = builder.Offset(opts.Offset)
	}

	return builder.ToSql()
}

// Scan reads up to opts.Limit rows of a table and validates each
func (s *Scanner) Scan(ctx context.Context, table string, opts Options) (*Report, error) {
	def, err := s.reg.Table(table)
	if err != nil {
		return nil, err
	}
	if opts.Schema == "" {
		opts.Schema = migrator.DefaultSchema
	}

	query, args, err := Query(def, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:        uuid.New(),
		Table:     def.Name,
		Schema:    opts.Schema,
		StartedAt: time.Now().UTC(),
	}
	log := logger.DB().WithField("scan_id", report.ID.String())
	log.Debug("scanning table", "table", def.Name, "query", query)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", def.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		raw := make(map[string]interface{})
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("failed to scan row %d of %s: %w", report.RowsScanned, def.Name, err)
		}

		row := make(validate.Row, len(raw))
		for k, v := range raw {
			row[strings.ToUpper(k)] = v
		}

		violations, err := s.validator.Validate(def.Name, row)
		if err != nil {
			return nil, err
		}
		if len(violations) > 0 {
			report.RowsInvalid++
			report.Rows = append(report.Rows, RowReport{
				Row:        report.RowsScanned,
				Key:        primaryKey(def, row),
				Violations: violations,
			})
		}
		report.RowsScanned++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", def.Name, err)
	}

	report.FinishedAt = time.Now().UTC()
	log.Info("scan finished",
		"table", def.Name,
		"rows", report.RowsScanned,
		"invalid", report.RowsInvalid,
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func primaryKey(def *catalog.TableDefinition, row validate.Row) map[string]any {
	pk := def.PrimaryKey()
	if pk == nil {
		return nil
	}
	key := make(map[string]any, len(pk.Columns))
	for _, c := range pk.Columns {
		v := row[c]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		key[c] = v
	}
	return key
}
