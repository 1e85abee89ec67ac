package catalog

import (
	"strings"
)

// KeyKind identifies the role of a key constraint in a handbook key table
type KeyKind string

const (
	KeyPrimary KeyKind = "primary"
	KeyUnique  KeyKind = "unique"
	KeyNatural KeyKind = "natural"
	KeyForeign KeyKind = "foreign"
	KeyIndex   KeyKind = "index"
)

// ParseKeyKind maps the "Type of key" cell of a handbook key table to a KeyKind
func ParseKeyKind(s string) (KeyKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "primary key":
		return KeyPrimary, true
	case "unique", "unique key":
		return KeyUnique, true
	case "natural", "natural key":
		return KeyNatural, true
	case "foreign", "foreign key":
		return KeyForeign, true
	case "index", "non-unique index":
		return KeyIndex, true
	default:
		return "", false
	}
}

// Label returns the capitalised form used in handbook key tables
func (k KeyKind) Label() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// TableDefinition represents one handbook table
type TableDefinition struct {
	Name        string              `json:"name" yaml:"name"`
	Title       string              `json:"title,omitempty" yaml:"title,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []*ColumnDefinition `json:"columns" yaml:"columns"`
	Keys        []*KeyConstraint    `json:"keys" yaml:"keys"`
}

// ColumnDefinition represents a column row of a handbook column table
type ColumnDefinition struct {
	Subsection string   `json:"subsection,omitempty" yaml:"subsection,omitempty"`
	Name       string   `json:"name" yaml:"name"`
	Label      string   `json:"label" yaml:"label"`
	Type       DataType `json:"type" yaml:"type"`
}

// KeyConstraint represents a row of a handbook key table
type KeyConstraint struct {
	Kind              KeyKind  `json:"kind" yaml:"kind"`
	Name              string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns           []string `json:"columns" yaml:"columns"`
	TargetTable       string   `json:"target_table,omitempty" yaml:"target_table,omitempty"`
	ReferencedColumns []string `json:"referenced_columns,omitempty" yaml:"referenced_columns,omitempty"`
}

// Column returns the column with the given name, matched case-insensitively
func (t *TableDefinition) Column(name string) (*ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// ColumnIndex returns the ordinal of the named column or -1
func (t *TableDefinition) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// PrimaryKey returns the first primary key constraint, or nil
func (t *TableDefinition) PrimaryKey() *KeyConstraint {
	for _, k := range t.Keys {
		if k.Kind == KeyPrimary {
			return k
		}
	}
	return nil
}

// KeysOfKind returns all keys of the given kind in declaration order
func (t *TableDefinition) KeysOfKind(kind KeyKind) []*KeyConstraint {
	var keys []*KeyConstraint
	for _, k := range t.Keys {
		if k.Kind == kind {
			keys = append(keys, k)
		}
	}
	return keys
}

// ForeignKeys returns the foreign key constraints of the table
func (t *TableDefinition) ForeignKeys() []*KeyConstraint {
	return t.KeysOfKind(KeyForeign)
}

// IsPrimaryKeyColumn reports whether the column participates in the primary key
func (t *TableDefinition) IsPrimaryKeyColumn(name string) bool {
	pk := t.PrimaryKey()
	if pk == nil {
		return false
	}
	for _, c := range pk.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the definition
func (t *TableDefinition) Clone() *TableDefinition {
	out := &TableDefinition{
		Name:        t.Name,
		Title:       t.Title,
		Description: t.Description,
		Columns:     make([]*ColumnDefinition, len(t.Columns)),
		Keys:        make([]*KeyConstraint, len(t.Keys)),
	}
	for i, c := range t.Columns {
		cc := *c
		out.Columns[i] = &cc
	}
	for i, k := range t.Keys {
		out.Keys[i] = k.Clone()
	}
	return out
}

// Clone returns a deep copy of the key
func (k *KeyConstraint) Clone() *KeyConstraint {
	out := *k
	out.Columns = append([]string(nil), k.Columns...)
	if k.ReferencedColumns != nil {
		out.ReferencedColumns = append([]string(nil), k.ReferencedColumns...)
	}
	return &out
}

// HasColumns reports whether the key lists exactly the given columns, in order
func (k *KeyConstraint) HasColumns(cols []string) bool {
	if len(k.Columns) != len(cols) {
		return false
	}
	for i := range cols {
		if !strings.EqualFold(k.Columns[i], cols[i]) {
			return false
		}
	}
	return true
}
