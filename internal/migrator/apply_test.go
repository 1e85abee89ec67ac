package migrator

import (
	"context"
	"errors"
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := &Plan{
		Changes:    []schema.Change{&schema.AddTable{T: &schema.Table{Name: "plot"}}},
		Statements: []string{"CREATE TABLE plot (cn text)", "COMMENT ON TABLE plot IS 'Plot table'"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE plot (cn text)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("COMMENT ON TABLE plot IS 'Plot table'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, Apply(context.Background(), db, plan, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	plan := &Plan{Statements: []string{"CREATE TABLE plot (cn text)", "CREATE TABLE tree (cn text)"}}

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE plot (cn text)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE tree (cn text)").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = Apply(context.Background(), db, plan, false)
	assert.EqualError(t, err, "failed to execute statement 2: permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRefusesDestructive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	plan := &Plan{
		Changes:    []schema.Change{&schema.DropTable{T: &schema.Table{Name: "old_plot"}}},
		Statements: []string{`DROP TABLE "old_plot"`},
	}

	err = Apply(context.Background(), db, plan, false)
	assert.EqualError(t, err, "plan has 1 destructive changes: Drop table old_plot")
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, Apply(context.Background(), db, &Plan{}, true))
}
