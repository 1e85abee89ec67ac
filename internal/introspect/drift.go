package introspect

import (
	"sort"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/logger"
	"github.com/eleven-am/fiadb/internal/registry"
)

// Drift reasons
const (
	ReasonMissingInDatabase = "missing in database"
	ReasonNotInCatalog      = "not in catalog"
)

// keySignature identifies a key by what it enforces rather than by name
type keySignature struct {
	kind    catalog.KeyKind
	name    string
	columns []string
	target  string
	refs    []string
}

func (s keySignature) hash() string {
	// a foreign key column stays paired with the column it references
	pairs := make([]string, len(s.columns))
	for i, col := range s.columns {
		pairs[i] = col
		if s.target != "" && i < len(s.refs) {
			pairs[i] = col + ">" + s.refs[i]
		}
	}
	sort.Strings(pairs)

	parts := append([]string{string(s.kind)}, pairs...)
	if s.target != "" {
		parts = append(parts, "REF:"+s.target)
		if len(s.refs) > len(s.columns) {
			parts = append(parts, strings.Join(s.refs[len(s.columns):], ","))
		}
	}
	return strings.Join(parts, "|")
}

// Compare reports where the live tables differ from the catalog. Only the
// primary key, unique keys and foreign keys are compared.
func Compare(reg *registry.Registry, schemaName string, live []*TableSchema) *Drift {
	drift := &Drift{Schema: schemaName}

	byName := make(map[string]*TableSchema, len(live))
	for _, t := range live {
		byName[strings.ToUpper(t.Name)] = t
	}

	for _, name := range reg.Names() {
		t, ok := byName[name]
		if !ok {
			drift.MissingTables = append(drift.MissingTables, name)
			continue
		}
		def, _ := reg.Table(name)
		if td := compareTable(def, t); !td.Empty() {
			drift.Tables = append(drift.Tables, td)
		}
	}

	for _, t := range live {
		if name := strings.ToUpper(t.Name); !reg.Has(name) {
			drift.ExtraTables = append(drift.ExtraTables, name)
		}
	}
	sort.Strings(drift.ExtraTables)

	logger.DB().Info("compared schema",
		"schema", schemaName,
		"missing_tables", len(drift.MissingTables),
		"extra_tables", len(drift.ExtraTables),
		"drifted_tables", len(drift.Tables))
	return drift
}

func compareTable(def *catalog.TableDefinition, t *TableSchema) *TableDrift {
	td := &TableDrift{Table: def.Name}

	liveCols := make(map[string]*ColumnSchema, len(t.Columns))
	for _, c := range t.Columns {
		liveCols[strings.ToUpper(c.Name)] = c
	}

	for _, col := range def.Columns {
		lc, ok := liveCols[col.Name]
		if !ok {
			td.MissingColumns = append(td.MissingColumns, col.Name)
			continue
		}
		expected := col.Type.PostgresType()
		if actual := NormalizeType(lc); actual != expected {
			td.TypeMismatches = append(td.TypeMismatches, TypeMismatch{Column: col.Name, Expected: expected, Actual: actual})
		}
	}
	for _, c := range t.Columns {
		if _, ok := def.Column(c.Name); !ok {
			td.ExtraColumns = append(td.ExtraColumns, strings.ToUpper(c.Name))
		}
	}

	td.KeyMismatches = compareKeys(catalogKeys(def), liveKeys(t))
	return td
}

func catalogKeys(def *catalog.TableDefinition) []keySignature {
	var sigs []keySignature
	for _, k := range def.Keys {
		switch k.Kind {
		case catalog.KeyPrimary, catalog.KeyUnique:
			sigs = append(sigs, keySignature{kind: k.Kind, name: k.Name, columns: k.Columns})
		case catalog.KeyForeign:
			sigs = append(sigs, keySignature{kind: k.Kind, name: k.Name, columns: k.Columns, target: k.TargetTable, refs: k.ReferencedColumns})
		}
	}
	return sigs
}

func liveKeys(t *TableSchema) []keySignature {
	var sigs []keySignature
	if t.PrimaryKey != nil {
		sigs = append(sigs, keySignature{kind: catalog.KeyPrimary, name: strings.ToUpper(t.PrimaryKey.Name), columns: upper(t.PrimaryKey.Columns)})
	}
	for _, uk := range t.UniqueKeys {
		sigs = append(sigs, keySignature{kind: catalog.KeyUnique, name: strings.ToUpper(uk.Name), columns: upper(uk.Columns)})
	}
	for _, fk := range t.ForeignKeys {
		sigs = append(sigs, keySignature{
			kind:    catalog.KeyForeign,
			name:    strings.ToUpper(fk.Name),
			columns: upper(fk.Columns),
			target:  strings.ToUpper(fk.ReferencedTable),
			refs:    upper(fk.ReferencedColumns),
		})
	}
	return sigs
}

func compareKeys(want, have []keySignature) []KeyMismatch {
	haveSet := make(map[string]bool, len(have))
	for _, s := range have {
		haveSet[s.hash()] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, s := range want {
		wantSet[s.hash()] = true
	}

	var out []KeyMismatch
	for _, s := range want {
		if !haveSet[s.hash()] {
			out = append(out, KeyMismatch{Key: s.name, Kind: string(s.kind), Columns: s.columns, Reason: ReasonMissingInDatabase})
		}
	}
	for _, s := range have {
		if !wantSet[s.hash()] {
			out = append(out, KeyMismatch{Key: s.name, Kind: string(s.kind), Columns: s.columns, Reason: ReasonNotInCatalog})
		}
	}
	return out
}
