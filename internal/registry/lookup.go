package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
)

// ErrNoPath is returned by JoinPath when no chain of foreign keys connects two tables
var ErrNoPath = errors.New("no foreign key path between tables")

// Link is one foreign key between two tables. From always names the table that
// owns Key unless Reversed is set, in which case the link is walked from the
// referenced table back to the referencing one.
type Link struct {
	From     string                 `json:"from" yaml:"from"`
	To       string                 `json:"to" yaml:"to"`
	Key      *catalog.KeyConstraint `json:"key" yaml:"key"`
	Reversed bool                   `json:"reversed,omitempty" yaml:"reversed,omitempty"`
}

// Pairs returns the joined columns as (From column, To column) pairs
func (l Link) Pairs() [][2]string {
	pairs := make([][2]string, 0, len(l.Key.Columns))
	for i, col := range l.Key.Columns {
		ref := ""
		if i < len(l.Key.ReferencedColumns) {
			ref = l.Key.ReferencedColumns[i]
		}
		if l.Reversed {
			pairs = append(pairs, [2]string{ref, col})
		} else {
			pairs = append(pairs, [2]string{col, ref})
		}
	}
	return pairs
}

// Condition renders the join condition, e.g. "TREE.PLT_CN = PLOT.CN"
func (l Link) Condition() string {
	var parts []string
	for _, p := range l.Pairs() {
		parts = append(parts, fmt.Sprintf("%s.%s = %s.%s", l.From, p[0], l.To, p[1]))
	}
	return strings.Join(parts, " AND ")
}

func (l Link) clone() Link {
	l.Key = l.Key.Clone()
	return l
}

func (r *Registry) lookup(name string) (*catalog.TableDefinition, error) {
	def, ok := r.tables[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, catalog.TableNotFound(name)
	}
	return def, nil
}

// Table returns a copy of the named table definition
func (r *Registry) Table(name string) (*catalog.TableDefinition, error) {
	def, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return def.Clone(), nil
}

// Has reports whether the table is loaded
func (r *Registry) Has(name string) bool {
	_, err := r.lookup(name)
	return err == nil
}

// Tables returns copies of every definition ordered by name
func (r *Registry) Tables() []*catalog.TableDefinition {
	out := make([]*catalog.TableDefinition, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tables[name].Clone())
	}
	return out
}

// Select returns copies of the named tables in the order given, or every
// table when no names are passed
func (r *Registry) Select(names ...string) ([]*catalog.TableDefinition, error) {
	if len(names) == 0 {
		return r.Tables(), nil
	}
	out := make([]*catalog.TableDefinition, 0, len(names))
	for _, name := range names {
		def, err := r.Table(name)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

// Names returns the loaded table names in order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of loaded tables
func (r *Registry) Len() int {
	return len(r.names)
}

// Column returns a copy of a column definition
func (r *Registry) Column(table, column string) (*catalog.ColumnDefinition, error) {
	def, err := r.lookup(table)
	if err != nil {
		return nil, err
	}
	col, ok := def.Column(strings.TrimSpace(column))
	if !ok {
		return nil, catalog.ColumnNotFound(def.Name, column)
	}
	cc := *col
	return &cc, nil
}

// ColumnType returns the declared type of a column
func (r *Registry) ColumnType(table, column string) (catalog.DataType, error) {
	col, err := r.Column(table, column)
	if err != nil {
		return catalog.DataType{}, err
	}
	return col.Type, nil
}

// ForeignKeys returns the foreign keys declared on from that target to
func (r *Registry) ForeignKeys(from, to string) ([]*catalog.KeyConstraint, error) {
	src, err := r.lookup(from)
	if err != nil {
		return nil, err
	}
	dst, err := r.lookup(to)
	if err != nil {
		return nil, err
	}

	var keys []*catalog.KeyConstraint
	for _, fk := range src.ForeignKeys() {
		if fk.TargetTable == dst.Name {
			keys = append(keys, fk.Clone())
		}
	}
	return keys, nil
}

// Links returns the foreign keys between a and b in either direction, those
// declared on a first
func (r *Registry) Links(a, b string) ([]Link, error) {
	left, err := r.lookup(a)
	if err != nil {
		return nil, err
	}
	right, err := r.lookup(b)
	if err != nil {
		return nil, err
	}

	var links []Link
	for _, fk := range left.ForeignKeys() {
		if fk.TargetTable == right.Name {
			links = append(links, Link{From: left.Name, To: right.Name, Key: fk.Clone()})
		}
	}
	if left.Name == right.Name {
		return links, nil
	}
	for _, fk := range right.ForeignKeys() {
		if fk.TargetTable == left.Name {
			links = append(links, Link{From: right.Name, To: left.Name, Key: fk.Clone()})
		}
	}
	return links, nil
}

// References returns the foreign keys of any table that target the named table
func (r *Registry) References(table string) ([]Link, error) {
	def, err := r.lookup(table)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(r.inbound[def.Name]))
	for _, l := range r.inbound[def.Name] {
		links = append(links, l.clone())
	}
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].From != links[j].From {
			return links[i].From < links[j].From
		}
		return links[i].Key.Name < links[j].Key.Name
	})
	return links, nil
}

// TablesWithColumn returns the names of every table carrying the column
func (r *Registry) TablesWithColumn(column string) []string {
	var names []string
	for _, name := range r.names {
		if _, ok := r.tables[name].Column(strings.TrimSpace(column)); ok {
			names = append(names, name)
		}
	}
	return names
}

// neighbours lists every link leaving a table in either direction, ordered by
// the table reached and then by key name. Self references are skipped.
func (r *Registry) neighbours(name string) []Link {
	var out []Link
	for _, fk := range r.tables[name].ForeignKeys() {
		if fk.TargetTable == name || len(fk.ReferencedColumns) == 0 {
			continue
		}
		if _, ok := r.tables[fk.TargetTable]; !ok {
			continue
		}
		out = append(out, Link{From: name, To: fk.TargetTable, Key: fk})
	}
	for _, in := range r.inbound[name] {
		if in.From == name {
			continue
		}
		out = append(out, Link{From: name, To: in.From, Key: in.Key, Reversed: true})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Key.Name < out[j].Key.Name
	})
	return out
}

// JoinPath returns the shortest chain of foreign keys joining from to to,
// walking keys in either direction. Ties resolve by table name so the result
// is stable. A table joins to itself with an empty path.
func (r *Registry) JoinPath(from, to string) ([]Link, error) {
	src, err := r.lookup(from)
	if err != nil {
		return nil, err
	}
	dst, err := r.lookup(to)
	if err != nil {
		return nil, err
	}
	if src.Name == dst.Name {
		return []Link{}, nil
	}

	prev := map[string]Link{}
	visited := map[string]bool{src.Name: true}
	queue := []string{src.Name}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst.Name {
			break
		}
		for _, l := range r.neighbours(cur) {
			if visited[l.To] {
				continue
			}
			visited[l.To] = true
			prev[l.To] = l
			queue = append(queue, l.To)
		}
	}

	if !visited[dst.Name] {
		return nil, fmt.Errorf("%w: %s and %s", ErrNoPath, src.Name, dst.Name)
	}

	var path []Link
	for at := dst.Name; at != src.Name; {
		l := prev[at]
		path = append(path, l.clone())
		at = l.From
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
