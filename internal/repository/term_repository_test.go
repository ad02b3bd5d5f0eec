package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/models"
)

func newTermRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTermRepositoryActivate(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("term-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Activate(context.Background(), "term-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryActivateMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = FALSE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = TRUE")).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "missing")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryListHolidays(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "date", "label"}).
		AddRow("h1", "term-1", time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC), "Founders Day")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, date, label FROM term_holidays WHERE term_id = $1 ORDER BY date ASC")).
		WithArgs("term-1").
		WillReturnRows(rows)

	holidays, err := repo.ListHolidays(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Founders Day", holidays[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryReplaceHolidays(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM term_holidays WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO term_holidays").
		WithArgs(sqlmock.AnyArg(), "term-1", sqlmock.AnyArg(), "Founders Day").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO term_holidays").
		WithArgs(sqlmock.AnyArg(), "term-1", sqlmock.AnyArg(), "Spring Break").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	holidays := []models.TermHoliday{
		{Date: time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC), Label: "Founders Day"},
		{Date: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Label: "Spring Break"},
	}
	require.NoError(t, repo.ReplaceHolidays(context.Background(), "term-1", holidays))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "academic_year", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow("term-1", "2025-1", "2025", time.Now(), time.Now(), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM terms WHERE is_active = TRUE LIMIT 1")).
		WillReturnRows(rows)

	term, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "term-1", term.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
