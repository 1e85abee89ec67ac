// Package registry holds the loaded handbook tables and answers lookups over
// them. A Registry is immutable once built and safe for concurrent readers.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/logger"
)

// Registry tracks every table definition by upper-case name
type Registry struct {
	tables   map[string]*catalog.TableDefinition
	names    []string
	inbound  map[string][]Link
	external bool
}

// Option configures New
type Option func(*Registry)

// AllowExternalReferences accepts foreign keys whose target table is not loaded.
// Such keys keep their referenced columns empty and never appear in join paths.
func AllowExternalReferences() Option {
	return func(r *Registry) {
		r.external = true
	}
}

// New loads the definitions, checks every invariant and resolves the
// referenced columns of each foreign key. All violations are returned together.
func New(defs []*catalog.TableDefinition, opts ...Option) (*Registry, error) {
	r := &Registry{
		tables:  make(map[string]*catalog.TableDefinition, len(defs)),
		inbound: make(map[string][]Link),
	}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	for _, def := range defs {
		if def == nil {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(def.Name))
		if name == "" {
			errs = append(errs, fmt.Errorf("table definition without a name"))
			continue
		}
		if _, exists := r.tables[name]; exists {
			errs = append(errs, &catalog.InvariantError{Table: name, Err: fmt.Errorf("table defined more than once")})
			continue
		}
		r.tables[name] = normalize(def.Clone(), name)
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	for _, name := range r.names {
		if err := r.tables[name].Check(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, name := range r.names {
		errs = append(errs, r.resolveForeignKeys(r.tables[name])...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	logger.Registry().Info("registry loaded", "tables", len(r.names))
	return r, nil
}

// MustNew is New for definitions known to be valid, such as the bundled handbook
func MustNew(defs []*catalog.TableDefinition, opts ...Option) *Registry {
	r, err := New(defs, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func normalize(def *catalog.TableDefinition, name string) *catalog.TableDefinition {
	def.Name = name
	for _, c := range def.Columns {
		c.Name = strings.ToUpper(strings.TrimSpace(c.Name))
	}
	for _, k := range def.Keys {
		k.Name = strings.ToUpper(k.Name)
		k.TargetTable = strings.ToUpper(strings.TrimSpace(k.TargetTable))
		for i := range k.Columns {
			k.Columns[i] = strings.ToUpper(strings.TrimSpace(k.Columns[i]))
		}
		for i := range k.ReferencedColumns {
			k.ReferencedColumns[i] = strings.ToUpper(strings.TrimSpace(k.ReferencedColumns[i]))
		}
	}
	return def
}

func (r *Registry) resolveForeignKeys(def *catalog.TableDefinition) []error {
	var errs []error
	for _, fk := range def.ForeignKeys() {
		target, ok := r.tables[fk.TargetTable]
		if !ok {
			if r.external {
				logger.Registry().Debug("external reference", "table", def.Name, "key", fk.Name, "target", fk.TargetTable)
				continue
			}
			errs = append(errs, &catalog.InvariantError{Table: def.Name, Key: fk.Name, Err: catalog.TableNotFound(fk.TargetTable)})
			continue
		}

		if len(fk.ReferencedColumns) == 0 {
			fk.ReferencedColumns = ResolveReferencedColumns(fk, target)
		}
		if len(fk.ReferencedColumns) != len(fk.Columns) {
			errs = append(errs, &catalog.InvariantError{Table: def.Name, Key: fk.Name, Err: catalog.ErrReferenceMismatch})
			continue
		}

		missing := false
		for _, col := range fk.ReferencedColumns {
			if _, ok := target.Column(col); !ok {
				errs = append(errs, &catalog.InvariantError{
					Table: def.Name,
					Key:   fk.Name,
					Err:   fmt.Errorf("%w: %s.%s", catalog.ErrUnknownKeyColumn, target.Name, col),
				})
				missing = true
			}
		}
		if missing {
			continue
		}

		r.inbound[target.Name] = append(r.inbound[target.Name], Link{From: def.Name, To: target.Name, Key: fk})
	}
	return errs
}

// ResolveReferencedColumns picks the target columns a foreign key points at:
// the target primary key when the column counts agree, then a unique or
// natural key with the same column names, then same-named target columns.
// It returns nil when nothing fits.
func ResolveReferencedColumns(fk *catalog.KeyConstraint, target *catalog.TableDefinition) []string {
	if pk := target.PrimaryKey(); pk != nil && len(pk.Columns) == len(fk.Columns) {
		return append([]string(nil), pk.Columns...)
	}

	for _, kind := range []catalog.KeyKind{catalog.KeyUnique, catalog.KeyNatural} {
		for _, k := range target.KeysOfKind(kind) {
			if k.HasColumns(fk.Columns) {
				return append([]string(nil), k.Columns...)
			}
		}
	}

	for _, col := range fk.Columns {
		if _, ok := target.Column(col); !ok {
			return nil
		}
	}
	return append([]string(nil), fk.Columns...)
}
