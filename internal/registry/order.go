package registry

import (
	"fmt"
	"sort"
)

// LoadOrder returns the table names ordered so that every table comes after
// the tables its foreign keys reference. Self references are ignored and
// ties are broken by name. A cycle between tables is an error.
func (r *Registry) LoadOrder() ([]string, error) {
	dependencies := make(map[string][]string, len(r.tables))
	for name, def := range r.tables {
		deps := make(map[string]bool)
		for _, fk := range def.ForeignKeys() {
			if fk.TargetTable != name && r.Has(fk.TargetTable) {
				deps[fk.TargetTable] = true
			}
		}
		for dep := range deps {
			dependencies[name] = append(dependencies[name], dep)
		}
		sort.Strings(dependencies[name])
	}

	sorted := make([]string, 0, len(r.names))
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		if visiting[name] {
			return fmt.Errorf("circular foreign key dependency involving table %s", name)
		}

		visiting[name] = true
		for _, dep := range dependencies[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[name] = false
		visited[name] = true
		sorted = append(sorted, name)
		return nil
	}

	for _, name := range r.names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
