package migrator

import (
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/handbook"
	"github.com/eleven-am/fiadb/internal/registry"
)

func defaultRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	defs, err := handbook.Default()
	require.NoError(t, err)
	return registry.MustNew(defs)
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want schema.Type
	}{
		{"VARCHAR2(34)", &schema.StringType{T: "character varying", Size: 34}},
		{"CHAR(1)", &schema.StringType{T: "character", Size: 1}},
		{"NUMBER(8,6)", &schema.DecimalType{T: "numeric", Precision: 8, Scale: 6}},
		{"NUMBER", &schema.DecimalType{T: "numeric"}},
		{"FLOAT", &schema.FloatType{T: "double precision"}},
		{"INTEGER", &schema.IntegerType{T: "bigint"}},
		{"DATE", &schema.TimeType{T: "timestamp without time zone"}},
		{"CLOB", &schema.StringType{T: "text"}},
		{"BLOB", &schema.BinaryType{T: "bytea"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnType(catalog.MustParseDataType(tt.in)))
		})
	}
}

func TestBuildRealm(t *testing.T) {
	reg := defaultRegistry(t)

	realm, err := BuildRealm(reg, "")
	require.NoError(t, err)
	require.Len(t, realm.Schemas, 1)

	sch := realm.Schemas[0]
	assert.Equal(t, DefaultSchema, sch.Name)
	assert.Len(t, sch.Tables, 13)

	plot, ok := sch.Table("plot")
	require.True(t, ok)
	assert.Same(t, sch, plot.Schema)

	require.NotNil(t, plot.PrimaryKey)
	assert.Equal(t, "plt_pk", plot.PrimaryKey.Name)
	require.Len(t, plot.PrimaryKey.Parts, 1)
	assert.Equal(t, "cn", plot.PrimaryKey.Parts[0].C.Name)

	cn, ok := plot.Column("cn")
	require.True(t, ok)
	assert.False(t, cn.Type.Null)

	lat, ok := plot.Column("lat")
	require.True(t, ok)
	assert.True(t, lat.Type.Null)
	assert.Equal(t, "numeric(8,6)", lat.Type.Raw)

	fk, ok := plot.ForeignKey("plt_cty_fk")
	require.True(t, ok)
	assert.Equal(t, "county", fk.RefTable.Name)
	assert.Equal(t, "cty_cn", fk.Columns[0].Name)
	assert.Equal(t, "cn", fk.RefColumns[0].Name)

	var unique, plain int
	for _, idx := range plot.Indexes {
		if idx.Unique {
			unique++
		} else {
			plain++
		}
	}
	assert.Equal(t, 1, unique)
	assert.Equal(t, 1, plain)
}

func TestBuildRealmSubset(t *testing.T) {
	reg := defaultRegistry(t)

	realm, err := BuildRealm(reg, "fia", "tree", "PLOT")
	require.NoError(t, err)

	sch := realm.Schemas[0]
	assert.Equal(t, "fia", sch.Name)
	require.Len(t, sch.Tables, 2)

	tree, ok := sch.Table("tree")
	require.True(t, ok)
	var symbols []string
	for _, fk := range tree.ForeignKeys {
		symbols = append(symbols, fk.Symbol)
	}
	assert.ElementsMatch(t, []string{"tre_plt_fk", "tre_tre_fk"}, symbols)

	_, err = BuildRealm(reg, "fia", "SEEDLING")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMarshalHCL(t *testing.T) {
	reg := defaultRegistry(t)

	out, err := MarshalHCL(reg, "public", "SURVEY", "PLOT", "COUNTY")
	require.NoError(t, err)

	hcl := string(out)
	assert.Contains(t, hcl, `schema "public"`)
	assert.Contains(t, hcl, `table "plot"`)
	assert.Contains(t, hcl, `column "lat"`)
	assert.Contains(t, hcl, `foreign_key "plt_srv_fk"`)
	assert.NotContains(t, hcl, `table "tree"`)
}
