package introspect

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/fiadb/internal/catalog"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var (
	columnCols = []string{"column_name", "ordinal_position", "data_type", "udt_name", "is_nullable",
		"character_maximum_length", "numeric_precision", "numeric_scale", "column_comment"}
	keyCols = []string{"constraint_name", "constraint_type", "columns"}
	fkCols  = []string{"constraint_name", "columns", "referenced_table", "referenced_columns", "delete_rule", "update_rule"}
)

func expectPlot(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "plot").
		WillReturnRows(sqlmock.NewRows(columnCols).
			AddRow("cn", 1, "character varying", "varchar", false, 34, nil, nil, "Sequence number").
			AddRow("srv_cn", 2, "character varying", "varchar", true, 34, nil, nil, nil).
			AddRow("lat", 3, "numeric", "numeric", true, nil, 8, 6, "Latitude").
			AddRow("measyear", 4, "numeric", "numeric", true, nil, 4, 0, nil).
			AddRow("created_date", 5, "timestamp without time zone", "timestamp", true, nil, nil, nil, nil))

	mock.ExpectQuery("constraint_type IN").
		WithArgs("public", "plot").
		WillReturnRows(sqlmock.NewRows(keyCols).
			AddRow("plt_pk", "PRIMARY KEY", "{cn}").
			AddRow("plt_uk", "UNIQUE", "{srv_cn,measyear}"))

	mock.ExpectQuery("information_schema.referential_constraints").
		WithArgs("public", "plot").
		WillReturnRows(sqlmock.NewRows(fkCols).
			AddRow("plt_srv_fk", "{srv_cn}", "survey", "{cn}", "NO ACTION", "NO ACTION"))
}

func TestNewInspector(t *testing.T) {
	db, _ := newMock(t)

	assert.Equal(t, "public", NewInspector(db, "").Schema())
	assert.Equal(t, "fia", NewInspector(db, "fia").Schema())
}

func TestInspectorTable(t *testing.T) {
	db, mock := newMock(t)
	expectPlot(mock)

	table, err := NewInspector(db, "public").Table(context.Background(), "PLOT")
	require.NoError(t, err)

	assert.Equal(t, "plot", table.Name)
	require.Len(t, table.Columns, 5)
	assert.Equal(t, "cn", table.Columns[0].Name)
	assert.False(t, table.Columns[0].IsNullable)
	require.NotNil(t, table.Columns[0].CharMaxLength)
	assert.Equal(t, 34, *table.Columns[0].CharMaxLength)
	require.NotNil(t, table.Columns[0].Comment)
	assert.Equal(t, "Sequence number", *table.Columns[0].Comment)
	assert.Nil(t, table.Columns[1].Comment)

	require.NotNil(t, table.PrimaryKey)
	assert.Equal(t, []string{"cn"}, []string(table.PrimaryKey.Columns))
	require.Len(t, table.UniqueKeys, 1)
	assert.Equal(t, []string{"srv_cn", "measyear"}, []string(table.UniqueKeys[0].Columns))

	require.Len(t, table.ForeignKeys, 1)
	assert.Equal(t, "survey", table.ForeignKeys[0].ReferencedTable)
	assert.Equal(t, []string{"cn"}, []string(table.ForeignKeys[0].ReferencedColumns))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectorTableNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "nowhere").
		WillReturnRows(sqlmock.NewRows(columnCols))

	_, err := NewInspector(db, "public").Table(context.Background(), "NOWHERE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestInspectorQueryError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("public").
		WillReturnError(errors.New("connection reset"))

	_, err := NewInspector(db, "public").Tables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query tables")
}

func TestInspectorDefinitions(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_comment"}).
			AddRow("plot", "Plot table"))
	expectPlot(mock)

	defs, err := NewInspector(db, "public").Definitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)

	plot := defs[0]
	assert.Equal(t, "PLOT", plot.Name)
	assert.Equal(t, "Plot table", plot.Title)
	require.Len(t, plot.Columns, 5)
	assert.Equal(t, "CN", plot.Columns[0].Name)
	assert.Equal(t, "Sequence number", plot.Columns[0].Label)
	assert.Equal(t, "VARCHAR2(34)", plot.Columns[0].Type.String())
	assert.Equal(t, "NUMBER(8,6)", plot.Columns[2].Type.String())
	assert.Equal(t, "NUMBER(4)", plot.Columns[3].Type.String())
	assert.Equal(t, catalog.TypeDate, plot.Columns[4].Type.Base)

	require.NotNil(t, plot.PrimaryKey())
	assert.Equal(t, "PLT_PK", plot.PrimaryKey().Name)
	fks := plot.ForeignKeys()
	require.Len(t, fks, 1)
	assert.Equal(t, "SURVEY", fks[0].TargetTable)
	assert.Equal(t, []string{"SRV_CN"}, fks[0].Columns)
	assert.Equal(t, []string{"CN"}, fks[0].ReferencedColumns)

	assert.NoError(t, mock.ExpectationsWereMet())
}
