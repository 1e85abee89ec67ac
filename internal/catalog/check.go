package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Check verifies the table-local invariants: exactly one primary key, unique
// column names, and key columns that exist in the table. Every violation is
// reported.
func (t *TableDefinition) Check() error {
	var errs []error

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.ToUpper(c.Name)
		if seen[name] {
			errs = append(errs, &InvariantError{Table: t.Name, Err: fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)})
		}
		seen[name] = true
	}

	switch n := len(t.KeysOfKind(KeyPrimary)); {
	case n == 0:
		errs = append(errs, &InvariantError{Table: t.Name, Err: ErrNoPrimaryKey})
	case n > 1:
		errs = append(errs, &InvariantError{Table: t.Name, Err: fmt.Errorf("%w (%d)", ErrMultiplePrimary, n)})
	}

	for _, k := range t.Keys {
		if len(k.Columns) == 0 {
			errs = append(errs, &InvariantError{Table: t.Name, Key: k.Name, Err: fmt.Errorf("%s key has no columns", k.Kind)})
		}
		for _, col := range k.Columns {
			if !seen[strings.ToUpper(col)] {
				errs = append(errs, &InvariantError{Table: t.Name, Key: k.Name, Err: fmt.Errorf("%w: %s", ErrUnknownKeyColumn, col)})
			}
		}
		if k.Kind == KeyForeign && k.TargetTable == "" {
			errs = append(errs, &InvariantError{Table: t.Name, Key: k.Name, Err: ErrMissingTarget})
		}
	}

	return errors.Join(errs...)
}
