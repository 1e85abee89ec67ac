// Package validate checks candidate rows against the declared column types and
// key constraints of a handbook table. Every violation in a row is reported.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/logger"
	"github.com/eleven-am/fiadb/internal/registry"
)

// Row is one candidate record keyed by column name
type Row map[string]any

// Reasons reported in violations
const (
	ReasonUnknownColumn  = "unknown column"
	ReasonDuplicate      = "column given more than once"
	ReasonMissingKey     = "primary key column missing"
	ReasonNullKey        = "primary key column is null"
	ReasonExpectString   = "expected a string"
	ReasonExpectNumber   = "expected a number"
	ReasonExpectDate     = "expected a date"
	ReasonExpectBinary   = "expected binary data"
	ReasonNotFinite      = "number is not finite"
	ReasonNotWholeNumber = "expected a whole number"
)

// Violation is one (column, reason) failure
type Violation struct {
	Column string `json:"column" yaml:"column"`
	Reason string `json:"reason" yaml:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Column, v.Reason)
}

// Violations is the outcome of validating one row
type Violations []Violation

// Error joins the violations, so a non-empty list can be returned as an error
func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Err returns nil for an empty list and the list otherwise
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return vs
}

// DefaultLayouts are the accepted text forms of DATE and TIMESTAMP values
var DefaultLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"01/02/2006",
}

// Validator checks rows against a registry
type Validator struct {
	reg     *registry.Registry
	layouts []string
}

// Option configures a Validator
type Option func(*Validator)

// WithLayouts replaces the accepted date layouts
func WithLayouts(layouts ...string) Option {
	return func(v *Validator) {
		v.layouts = append([]string(nil), layouts...)
	}
}

// New creates a validator over the registry
func New(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{reg: reg, layouts: DefaultLayouts}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks one row. The returned error is only set when the table is
// unknown; row problems come back as violations ordered by column position.
func (v *Validator) Validate(table string, row Row) (Violations, error) {
	def, err := v.reg.Table(table)
	if err != nil {
		return nil, err
	}
	return v.check(def, row), nil
}

// ValidateRows checks a batch and returns the violations of each failing row by index
func (v *Validator) ValidateRows(table string, rows []Row) (map[int]Violations, error) {
	def, err := v.reg.Table(table)
	if err != nil {
		return nil, err
	}

	out := make(map[int]Violations)
	for i, row := range rows {
		if vs := v.check(def, row); len(vs) > 0 {
			out[i] = vs
		}
	}

	logger.Validate().Debug("validated batch", "table", def.Name, "rows", len(rows), "invalid", len(out))
	return out, nil
}

type ranked struct {
	pos int
	Violation
}

func (v *Validator) check(def *catalog.TableDefinition, row Row) Violations {
	var found []ranked
	add := func(pos int, column, reason string) {
		found = append(found, ranked{pos: pos, Violation: Violation{Column: column, Reason: reason}})
	}

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	present := make(map[string]any, len(row))
	for _, key := range keys {
		value := row[key]
		name := strings.ToUpper(strings.TrimSpace(key))
		pos := def.ColumnIndex(name)
		if pos < 0 {
			add(len(def.Columns), name, ReasonUnknownColumn)
			continue
		}
		if _, dup := present[name]; dup {
			add(pos, name, ReasonDuplicate)
			continue
		}
		present[name] = value
	}

	for pos, col := range def.Columns {
		value, ok := present[col.Name]
		isKey := def.IsPrimaryKeyColumn(col.Name)
		switch {
		case !ok && isKey:
			add(pos, col.Name, ReasonMissingKey)
			continue
		case !ok:
			continue
		}

		value = deref(value)
		if value == nil {
			if isKey {
				add(pos, col.Name, ReasonNullKey)
			}
			continue
		}

		if reason := v.CheckValue(col.Type, value); reason != "" {
			add(pos, col.Name, reason)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].pos != found[j].pos {
			return found[i].pos < found[j].pos
		}
		return found[i].Column < found[j].Column
	})

	out := make(Violations, len(found))
	for i, f := range found {
		out[i] = f.Violation
	}
	return out
}

// CheckValue tests a single non-null value against a declared type and returns
// the violation reason, or "" when the value fits
func (v *Validator) CheckValue(dt catalog.DataType, value any) string {
	switch {
	case dt.IsString():
		return checkString(dt, value)
	case dt.IsNumeric():
		return checkNumber(dt, value)
	case dt.IsTemporal():
		return v.checkTime(value)
	case dt.Base == catalog.TypeClob:
		if _, ok := asText(value); !ok {
			return ReasonExpectString
		}
	case dt.Base == catalog.TypeBlob:
		switch value.(type) {
		case []byte, string:
		default:
			return ReasonExpectBinary
		}
	}
	return ""
}

func checkString(dt catalog.DataType, value any) string {
	s, ok := asText(value)
	if !ok {
		return ReasonExpectString
	}
	n := len(s)
	if dt.Base == catalog.TypeNVarchar2 {
		n = utf8.RuneCountInString(s)
	}
	if dt.Length > 0 && n > dt.Length {
		return fmt.Sprintf("length %d exceeds %s", n, dt)
	}
	return ""
}

func (v *Validator) checkTime(value any) string {
	switch t := value.(type) {
	case time.Time:
		return ""
	case string, []byte:
		s, _ := asText(t)
		s = strings.TrimSpace(s)
		for _, layout := range v.layouts {
			if _, err := time.Parse(layout, s); err == nil {
				return ""
			}
		}
		return fmt.Sprintf("%s: %q", ReasonExpectDate, s)
	default:
		return ReasonExpectDate
	}
}

func asText(value any) (string, bool) {
	switch s := value.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// deref unwraps typed pointers; a nil pointer is null
func deref(value any) any {
	switch p := value.(type) {
	case *string:
		if p == nil {
			return nil
		}
		return *p
	case *int64:
		if p == nil {
			return nil
		}
		return *p
	case *float64:
		if p == nil {
			return nil
		}
		return *p
	case *time.Time:
		if p == nil {
			return nil
		}
		return *p
	}
	return value
}
