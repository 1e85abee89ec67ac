package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrNoPrimaryKey      = errors.New("no primary key defined")
	ErrMultiplePrimary   = errors.New("more than one primary key defined")
	ErrUnknownKeyColumn  = errors.New("key references unknown column")
	ErrMissingTarget     = errors.New("foreign key has no target table")
	ErrDuplicateColumn   = errors.New("duplicate column")
	ErrReferenceMismatch = errors.New("foreign key column count does not match referenced columns")
)

// NotFoundError reports a lookup of an unknown table or column
type NotFoundError struct {
	Kind  string // "table" or "column"
	Table string
	Name  string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "column" {
		return fmt.Sprintf("column %s not found in table %s", e.Name, e.Table)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TableNotFound builds the error returned for an unknown table
func TableNotFound(name string) error {
	return &NotFoundError{Kind: "table", Name: name}
}

// ColumnNotFound builds the error returned for an unknown column
func ColumnNotFound(table, column string) error {
	return &NotFoundError{Kind: "column", Table: table, Name: column}
}

// InvariantError ties a constraint violation to the table and key it was found on
type InvariantError struct {
	Table string
	Key   string
	Err   error
}

func (e *InvariantError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
