package introspect

import (
	"github.com/lib/pq"
)

// TableSchema is a table as found in a live database
type TableSchema struct {
	Name        string              `json:"name"`
	Schema      string              `json:"schema"`
	Comment     string              `json:"comment,omitempty"`
	Columns     []*ColumnSchema     `json:"columns"`
	PrimaryKey  *KeySchema          `json:"primary_key,omitempty"`
	UniqueKeys  []*KeySchema        `json:"unique_keys,omitempty"`
	ForeignKeys []*ForeignKeySchema `json:"foreign_keys,omitempty"`
}

// ColumnSchema is one row of information_schema.columns
type ColumnSchema struct {
	Name             string  `db:"column_name" json:"name"`
	OrdinalPosition  int     `db:"ordinal_position" json:"ordinal_position"`
	DataType         string  `db:"data_type" json:"data_type"`
	UDTName          string  `db:"udt_name" json:"udt_name"`
	IsNullable       bool    `db:"is_nullable" json:"is_nullable"`
	CharMaxLength    *int    `db:"character_maximum_length" json:"char_max_length,omitempty"`
	NumericPrecision *int    `db:"numeric_precision" json:"numeric_precision,omitempty"`
	NumericScale     *int    `db:"numeric_scale" json:"numeric_scale,omitempty"`
	Comment          *string `db:"column_comment" json:"comment,omitempty"`
}

// KeySchema is a primary key or unique constraint
type KeySchema struct {
	Name    string         `db:"constraint_name" json:"name"`
	Type    string         `db:"constraint_type" json:"type"`
	Columns pq.StringArray `db:"columns" json:"columns"`
}

// ForeignKeySchema is a foreign key constraint
type ForeignKeySchema struct {
	Name              string         `db:"constraint_name" json:"name"`
	Columns           pq.StringArray `db:"columns" json:"columns"`
	ReferencedTable   string         `db:"referenced_table" json:"referenced_table"`
	ReferencedColumns pq.StringArray `db:"referenced_columns" json:"referenced_columns"`
	OnDelete          string         `db:"delete_rule" json:"on_delete"`
	OnUpdate          string         `db:"update_rule" json:"on_update"`
}

// Drift lists the differences between the catalog and a live database
type Drift struct {
	Schema        string        `json:"schema"`
	MissingTables []string      `json:"missing_tables,omitempty"`
	ExtraTables   []string      `json:"extra_tables,omitempty"`
	Tables        []*TableDrift `json:"tables,omitempty"`
}

// TableDrift lists the differences found in one table
type TableDrift struct {
	Table          string         `json:"table"`
	MissingColumns []string       `json:"missing_columns,omitempty"`
	ExtraColumns   []string       `json:"extra_columns,omitempty"`
	TypeMismatches []TypeMismatch `json:"type_mismatches,omitempty"`
	KeyMismatches  []KeyMismatch  `json:"key_mismatches,omitempty"`
}

// TypeMismatch is a column whose live type differs from the catalog
type TypeMismatch struct {
	Column   string `json:"column"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// KeyMismatch is a key present on only one side
type KeyMismatch struct {
	Key     string   `json:"key"`
	Kind    string   `json:"kind"`
	Columns []string `json:"columns"`
	Reason  string   `json:"reason"`
}

// Empty reports whether no difference was found
func (d *TableDrift) Empty() bool {
	return len(d.MissingColumns) == 0 && len(d.ExtraColumns) == 0 &&
		len(d.TypeMismatches) == 0 && len(d.KeyMismatches) == 0
}

// Empty reports whether the database matches the catalog
func (d *Drift) Empty() bool {
	return len(d.MissingTables) == 0 && len(d.ExtraTables) == 0 && len(d.Tables) == 0
}
