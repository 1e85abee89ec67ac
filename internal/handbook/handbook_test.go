package handbook

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/fiadb/internal/catalog"
)

const surveyPage = `# Survey Table

Oracle table name: SURVEY

One record per state inventory.

| Subsection | Column name (attribute) | Descriptive name | Oracle data type |
|---|---|---|---|
| 2.1.1 | CN | Sequence number | VARCHAR2(34) |
| 2.1.2 | INVYR | Inventory year | NUMBER(4) |
| 2.1.3 | STATECD | State code | NUMBER(4) |
| 2.1.4 | created_date | Created date | DATE |

| Type of key | Column(s) order | Tables to link | Abbreviated notation |
|---|---|---|---|
| Primary | (CN) | N/A | SRV_PK |
| Unique | (STATECD, INVYR) | N/A | SRV_UK |
`

func TestParsePage(t *testing.T) {
	def, err := ParsePage("survey.md", []byte(surveyPage))
	require.NoError(t, err)

	assert.Equal(t, "SURVEY", def.Name)
	assert.Equal(t, "Survey Table", def.Title)
	assert.Equal(t, "One record per state inventory.", def.Description)
	require.Len(t, def.Columns, 4)
	assert.Equal(t, "CREATED_DATE", def.Columns[3].Name)
	assert.Equal(t, catalog.TypeDate, def.Columns[3].Type.Base)
	assert.Equal(t, "2.1.2", def.Columns[1].Subsection)

	require.Len(t, def.Keys, 2)
	assert.Equal(t, catalog.KeyPrimary, def.Keys[0].Kind)
	assert.Equal(t, "SRV_PK", def.Keys[0].Name)
	assert.Equal(t, []string{"STATECD", "INVYR"}, def.Keys[1].Columns)
	assert.NoError(t, def.Check())
}

func TestParsePageErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		row     int
	}{
		{
			name:    "no table name",
			src:     "# Nothing\n\nJust prose.\n",
			wantErr: ErrNoTableName,
		},
		{
			name:    "no column table",
			src:     "Oracle table name: EMPTY\n\nProse only.\n",
			wantErr: ErrNoColumnTable,
		},
		{
			name: "bad data type",
			src: "Oracle table name: BAD\n\n" +
				"| Subsection | Column name (attribute) | Descriptive name | Oracle data type |\n" +
				"|---|---|---|---|\n" +
				"| 1 | CN | Sequence number | VARCHAR2(34) |\n" +
				"| 2 | SHAPE | Geometry | GEOMETRY |\n",
			row: 2,
		},
		{
			name: "foreign key from another table",
			src: "Oracle table name: BAD\n\n" +
				"| Subsection | Column name (attribute) | Descriptive name | Oracle data type |\n" +
				"|---|---|---|---|\n" +
				"| 1 | CN | Sequence number | VARCHAR2(34) |\n\n" +
				"| Type of key | Column(s) order | Tables to link | Abbreviated notation |\n" +
				"|---|---|---|---|\n" +
				"| Foreign | (CN) | PLOT to SURVEY | BAD_FK |\n",
			row: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePage("bad.md", []byte(tt.src))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "bad.md", perr.Page)
			assert.Equal(t, tt.row, perr.Row)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	defs, err := Default()
	require.NoError(t, err)
	require.Len(t, defs, 13)

	names := make(map[string]*catalog.TableDefinition)
	for _, d := range defs {
		names[d.Name] = d
	}
	for _, want := range []string{
		"SURVEY", "COUNTY", "PLOT", "COND", "SUBPLOT", "TREE", "REF_SPECIES",
		"POP_EVAL", "POP_EVAL_GRP", "POP_EVAL_TYP", "POP_ESTN_UNIT",
		"POP_STRATUM", "POP_PLOT_STRATUM_ASSGN",
	} {
		assert.Contains(t, names, want)
	}

	plot := names["PLOT"]
	require.NotNil(t, plot)
	lat, ok := plot.Column("LAT")
	require.True(t, ok)
	assert.Equal(t, "NUMBER(8,6)", lat.Type.String())

	var targets []string
	for _, fk := range plot.ForeignKeys() {
		targets = append(targets, fk.TargetTable)
	}
	assert.ElementsMatch(t, []string{"COUNTY", "PLOT", "SURVEY"}, targets)
}

func TestDefaultPrimaryKeyCardinality(t *testing.T) {
	defs, err := Default()
	require.NoError(t, err)

	for _, d := range defs {
		assert.Len(t, d.KeysOfKind(catalog.KeyPrimary), 1, d.Name)
		for _, fk := range d.ForeignKeys() {
			for _, col := range fk.Columns {
				_, ok := d.Column(col)
				assert.True(t, ok, "%s.%s in %s", d.Name, col, fk.Name)
			}
		}
	}
}

func TestColumnTableRoundTrip(t *testing.T) {
	files, err := fs.Glob(Pages(), "pages/*.md")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(path.Base(file), func(t *testing.T) {
			src, err := fs.ReadFile(Pages(), file)
			require.NoError(t, err)

			def, err := ParsePage(file, src)
			require.NoError(t, err)

			original := ReadTables(src)
			rendered := ReadTables([]byte(RenderColumnTable(def)))
			require.Len(t, rendered, 1)
			assert.Equal(t, original[0].Header, rendered[0].Header)
			assert.Equal(t, original[0].Rows, rendered[0].Rows)

			keys := ReadTables([]byte(RenderKeyTable(def)))
			require.Len(t, keys, 1)
			require.Len(t, original, 2)
			assert.Equal(t, original[1].Rows, keys[0].Rows)
		})
	}
}

func TestRenderPageRoundTrip(t *testing.T) {
	defs, err := Default()
	require.NoError(t, err)

	for _, def := range defs {
		back, err := ParsePage(def.Name, []byte(RenderPage(def)))
		require.NoError(t, err, def.Name)
		assert.Equal(t, def, back, def.Name)
	}
}

func TestRenderPageKeepsMarkupInLabels(t *testing.T) {
	labels := []string{
		"Tree *adjusted* count",
		"a*b*c",
		"`code` label",
		"x <b>y</b>",
		`back\slash`,
		"_lead and trail_",
		"plot_id stays",
		"[not a link]",
		"AT&T",
	}

	defs, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	def := *defs[0]
	def.Columns = nil
	for i, col := range defs[0].Columns {
		c := *col
		c.Label = labels[i%len(labels)]
		def.Columns = append(def.Columns, &c)
	}
	require.GreaterOrEqual(t, len(def.Columns), 1)

	out := RenderPage(&def)
	back, err := ParsePage(def.Name, []byte(out))
	require.NoError(t, err)
	require.Len(t, back.Columns, len(def.Columns))
	for i, col := range def.Columns {
		assert.Equal(t, col.Label, back.Columns[i].Label)
	}

	tables := ReadTables([]byte(RenderColumnTable(&def)))
	require.Len(t, tables, 1)
	for i, col := range def.Columns {
		assert.Equal(t, ColumnRow(col), tables[0].Rows[i])
	}
}

func TestReadTablesKeepsCellSource(t *testing.T) {
	src := "| A | B |\n|---|---|\n| Tree *adjusted* count | `code` \\| x |\n"
	tables := ReadTables([]byte(src))
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Tree *adjusted* count", "`code` | x"}, tables[0].Rows[0])
}

func TestRenderEscapesPipes(t *testing.T) {
	def := &catalog.TableDefinition{
		Name: "X",
		Columns: []*catalog.ColumnDefinition{
			{Subsection: "1", Name: "A", Label: "either | or", Type: catalog.MustParseDataType("CHAR(1)")},
		},
	}
	out := RenderColumnTable(def)
	assert.True(t, strings.Contains(out, `either \| or`))

	tables := ReadTables([]byte(out))
	require.Len(t, tables, 1)
	assert.Equal(t, "either | or", tables[0].Rows[0][2])
}

func TestParseDir(t *testing.T) {
	fsys := fstest.MapFS{
		"hb/survey.md": {Data: []byte(surveyPage)},
		"hb/notes.txt": {Data: []byte("ignored")},
		"hb/broken.md": {Data: []byte("# Broken\n")},
	}

	_, err := ParseDir(fsys, "hb")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTableName)

	delete(fsys, "hb/broken.md")
	defs, err := ParseDir(fsys, "hb")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "SURVEY", defs[0].Name)

	_, err = ParseDir(fsys, "missing")
	assert.Error(t, err)
}
