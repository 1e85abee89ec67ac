package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/handbook"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	defs, err := handbook.Default()
	require.NoError(t, err)
	r, err := New(defs)
	require.NoError(t, err)
	return r
}

func TestTableLookup(t *testing.T) {
	r := MustNew(fixture())

	def, err := r.Table("tree")
	require.NoError(t, err)
	assert.Equal(t, "TREE", def.Name)

	_, err = r.Table("SEEDLING")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, "table SEEDLING not found", err.Error())

	tables := r.Tables()
	require.Len(t, tables, 4)
	assert.Equal(t, "COUNTY", tables[0].Name)
}

func TestColumnLookup(t *testing.T) {
	r := defaultRegistry(t)

	dt, err := r.ColumnType("PLOT", "lat")
	require.NoError(t, err)
	assert.Equal(t, catalog.TypeNumber, dt.Base)
	assert.Equal(t, 8, dt.Precision)
	assert.Equal(t, 6, dt.Scale)

	col, err := r.Column("TREE", "SPCD")
	require.NoError(t, err)
	assert.Equal(t, "SPCD", col.Name)

	_, err = r.ColumnType("PLOT", "DIAMETER")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, "column DIAMETER not found in table PLOT", err.Error())

	_, err = r.ColumnType("PLOTS", "LAT")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestForeignKeys(t *testing.T) {
	r := defaultRegistry(t)

	keys, err := r.ForeignKeys("TREE", "PLOT")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "TRE_PLT_FK", keys[0].Name)
	assert.Equal(t, []string{"PLT_CN"}, keys[0].Columns)
	assert.Equal(t, []string{"CN"}, keys[0].ReferencedColumns)

	keys, err = r.ForeignKeys("PLOT", "TREE")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = r.ForeignKeys("TREE", "NOPE")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestLinks(t *testing.T) {
	r := defaultRegistry(t)

	links, err := r.Links("PLOT", "TREE")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "TREE", links[0].From)
	assert.Equal(t, "PLOT", links[0].To)
	assert.Equal(t, "TREE.PLT_CN = PLOT.CN", links[0].Condition())

	links, err = r.Links("PLOT", "PLOT")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "PLT_PLT_FK", links[0].Key.Name)

	links, err = r.Links("SURVEY", "REF_SPECIES")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestReferences(t *testing.T) {
	r := defaultRegistry(t)

	links, err := r.References("PLOT")
	require.NoError(t, err)

	var from []string
	for _, l := range links {
		from = append(from, l.From)
	}
	assert.Equal(t, []string{"COND", "PLOT", "POP_PLOT_STRATUM_ASSGN", "SUBPLOT", "TREE"}, from)

	_, err = r.References("MISSING")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestTablesWithColumn(t *testing.T) {
	r := defaultRegistry(t)

	assert.Equal(t,
		[]string{"POP_ESTN_UNIT", "POP_EVAL", "POP_PLOT_STRATUM_ASSGN", "POP_STRATUM"},
		r.TablesWithColumn("evalid"),
	)
	assert.Empty(t, r.TablesWithColumn("NOT_A_COLUMN"))
}

func TestJoinPath(t *testing.T) {
	r := defaultRegistry(t)

	path, err := r.JoinPath("TREE", "POP_EVAL")
	require.NoError(t, err)

	var hops []string
	for _, l := range path {
		hops = append(hops, l.From+">"+l.To)
	}
	assert.Equal(t, []string{
		"TREE>PLOT",
		"PLOT>POP_PLOT_STRATUM_ASSGN",
		"POP_PLOT_STRATUM_ASSGN>POP_STRATUM",
		"POP_STRATUM>POP_ESTN_UNIT",
		"POP_ESTN_UNIT>POP_EVAL",
	}, hops)

	assert.False(t, path[0].Reversed)
	assert.True(t, path[1].Reversed)
	assert.Equal(t, "PLOT.CN = POP_PLOT_STRATUM_ASSGN.PLT_CN", path[1].Condition())

	path, err = r.JoinPath("COUNTY", "SURVEY")
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "PLOT", path[0].To)

	path, err = r.JoinPath("plot", "PLOT")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestJoinPathNoPath(t *testing.T) {
	r := MustNew(fixture())

	_, err := r.JoinPath("TREE", "ISLAND")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = r.JoinPath("TREE", "NOWHERE")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestJoinPathPrefersNameOrder(t *testing.T) {
	r := MustNew(fixture())

	path, err := r.JoinPath("TREE", "COUNTY")
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, "TRE_CTY_FK", path[0].Key.Name)
	assert.Equal(t, "TREE.STATECD = COUNTY.STATECD AND TREE.COUNTYCD = COUNTY.COUNTYCD", path[0].Condition())
}
