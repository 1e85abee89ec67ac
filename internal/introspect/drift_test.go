package introspect

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/registry"
)

func driftRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]*catalog.TableDefinition{
		{
			Name: "COUNTY",
			Columns: []*catalog.ColumnDefinition{
				{Name: "CN", Type: catalog.MustParseDataType("VARCHAR2(34)")},
				{Name: "STATECD", Type: catalog.MustParseDataType("NUMBER(4)")},
				{Name: "COUNTYCD", Type: catalog.MustParseDataType("NUMBER(3)")},
			},
			Keys: []*catalog.KeyConstraint{
				{Kind: catalog.KeyPrimary, Name: "CTY_PK", Columns: []string{"CN"}},
				{Kind: catalog.KeyUnique, Name: "CTY_UK", Columns: []string{"STATECD", "COUNTYCD"}},
			},
		},
		{
			Name: "PLOT",
			Columns: []*catalog.ColumnDefinition{
				{Name: "CN", Type: catalog.MustParseDataType("VARCHAR2(34)")},
				{Name: "CTY_CN", Type: catalog.MustParseDataType("VARCHAR2(34)")},
				{Name: "LAT", Type: catalog.MustParseDataType("NUMBER(8,6)")},
			},
			Keys: []*catalog.KeyConstraint{
				{Kind: catalog.KeyPrimary, Name: "PLT_PK", Columns: []string{"CN"}},
				{Kind: catalog.KeyNatural, Name: "PLT_NAT_I", Columns: []string{"LAT"}},
				{Kind: catalog.KeyForeign, Name: "PLT_CTY_FK", Columns: []string{"CTY_CN"}, TargetTable: "COUNTY"},
			},
		},
	})
	require.NoError(t, err)
	return reg
}

func liveTables() []*TableSchema {
	return []*TableSchema{
		{
			Name: "county",
			Columns: []*ColumnSchema{
				{Name: "cn", DataType: "character varying", CharMaxLength: intp(34)},
				{Name: "statecd", DataType: "numeric", NumericPrecision: intp(4), NumericScale: intp(0)},
				{Name: "countycd", DataType: "numeric", NumericPrecision: intp(3), NumericScale: intp(0)},
			},
			PrimaryKey: &KeySchema{Name: "cty_pk", Type: "PRIMARY KEY", Columns: pq.StringArray{"cn"}},
			UniqueKeys: []*KeySchema{{Name: "cty_uk", Type: "UNIQUE", Columns: pq.StringArray{"statecd", "countycd"}}},
		},
		{
			Name: "plot",
			Columns: []*ColumnSchema{
				{Name: "cn", DataType: "character varying", CharMaxLength: intp(34)},
				{Name: "cty_cn", DataType: "character varying", CharMaxLength: intp(34)},
				{Name: "lat", DataType: "numeric", NumericPrecision: intp(8), NumericScale: intp(6)},
			},
			PrimaryKey: &KeySchema{Name: "plt_pk", Type: "PRIMARY KEY", Columns: pq.StringArray{"cn"}},
			ForeignKeys: []*ForeignKeySchema{{
				Name:              "plt_cty_fk",
				Columns:           pq.StringArray{"cty_cn"},
				ReferencedTable:   "county",
				ReferencedColumns: pq.StringArray{"cn"},
			}},
		},
	}
}

func TestCompareMatching(t *testing.T) {
	drift := Compare(driftRegistry(t), "public", liveTables())

	assert.True(t, drift.Empty(), "%+v", drift)
	assert.Equal(t, "public", drift.Schema)
}

func TestCompareTables(t *testing.T) {
	live := liveTables()[:1]
	live = append(live, &TableSchema{Name: "audit_log", Columns: []*ColumnSchema{{Name: "id", DataType: "bigint"}}})

	drift := Compare(driftRegistry(t), "public", live)

	assert.False(t, drift.Empty())
	assert.Equal(t, []string{"PLOT"}, drift.MissingTables)
	assert.Equal(t, []string{"AUDIT_LOG"}, drift.ExtraTables)
	assert.Empty(t, drift.Tables)
}

func TestCompareColumns(t *testing.T) {
	live := liveTables()
	plot := live[1]
	plot.Columns[2].NumericScale = intp(4)
	plot.Columns = append(plot.Columns[:1], plot.Columns[2], &ColumnSchema{Name: "notes", DataType: "text"})

	drift := Compare(driftRegistry(t), "public", live)
	require.Len(t, drift.Tables, 1)

	td := drift.Tables[0]
	assert.Equal(t, "PLOT", td.Table)
	assert.Equal(t, []string{"CTY_CN"}, td.MissingColumns)
	assert.Equal(t, []string{"NOTES"}, td.ExtraColumns)
	assert.Equal(t, []TypeMismatch{{Column: "LAT", Expected: "numeric(8,6)", Actual: "numeric(8,4)"}}, td.TypeMismatches)
}

func TestCompareKeys(t *testing.T) {
	live := liveTables()
	live[0].UniqueKeys = nil
	live[1].ForeignKeys[0].ReferencedTable = "state"
	live[1].PrimaryKey.Name = "plot_pkey"

	drift := Compare(driftRegistry(t), "public", live)
	require.Len(t, drift.Tables, 2)

	county := drift.Tables[0]
	assert.Equal(t, "COUNTY", county.Table)
	assert.Equal(t, []KeyMismatch{
		{Key: "CTY_UK", Kind: "unique", Columns: []string{"STATECD", "COUNTYCD"}, Reason: ReasonMissingInDatabase},
	}, county.KeyMismatches)

	plot := drift.Tables[1]
	assert.Equal(t, []KeyMismatch{
		{Key: "PLT_CTY_FK", Kind: "foreign", Columns: []string{"CTY_CN"}, Reason: ReasonMissingInDatabase},
		{Key: "PLT_CTY_FK", Kind: "foreign", Columns: []string{"CTY_CN"}, Reason: ReasonNotInCatalog},
	}, plot.KeyMismatches)
}

func TestCompareKeysForeignColumnPairing(t *testing.T) {
	want := []keySignature{{
		kind:    catalog.KeyForeign,
		name:    "PLT_CTY_FK",
		columns: []string{"STATECD", "COUNTYCD"},
		target:  "COUNTY",
		refs:    []string{"STATECD", "COUNTYCD"},
	}}

	reordered := []keySignature{{
		kind:    catalog.KeyForeign,
		name:    "PLOT_COUNTY_FK",
		columns: []string{"COUNTYCD", "STATECD"},
		target:  "COUNTY",
		refs:    []string{"COUNTYCD", "STATECD"},
	}}
	assert.Empty(t, compareKeys(want, reordered))
	assert.Equal(t, want[0].hash(), reordered[0].hash())

	swapped := []keySignature{{
		kind:    catalog.KeyForeign,
		name:    "PLT_CTY_FK",
		columns: []string{"COUNTYCD", "STATECD"},
		target:  "COUNTY",
		refs:    []string{"STATECD", "COUNTYCD"},
	}}
	assert.NotEqual(t, want[0].hash(), swapped[0].hash())
	assert.Equal(t, []KeyMismatch{
		{Key: "PLT_CTY_FK", Kind: "foreign", Columns: []string{"STATECD", "COUNTYCD"}, Reason: ReasonMissingInDatabase},
		{Key: "PLT_CTY_FK", Kind: "foreign", Columns: []string{"COUNTYCD", "STATECD"}, Reason: ReasonNotInCatalog},
	}, compareKeys(want, swapped))
}
