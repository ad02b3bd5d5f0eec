package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/models"
)

func newRateRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRateRepositoryHasOverlap(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT 1 FROM payment_rates WHERE level").
		WithArgs(models.LevelDoctor, from, nil).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	overlaps, err := repo.HasOverlap(context.Background(), models.LevelDoctor, from, nil, "")
	require.NoError(t, err)
	assert.True(t, overlaps)

	mock.ExpectQuery("SELECT 1 FROM payment_rates WHERE level").
		WithArgs(models.LevelGrado, from, nil).
		WillReturnError(sql.ErrNoRows)

	overlaps, err = repo.HasOverlap(context.Background(), models.LevelGrado, from, nil, "")
	require.NoError(t, err)
	assert.False(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRepositoryResolveAll(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	at := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"level", "hourly_rate"}).
		AddRow("GDO", "8.50").
		AddRow("M1", "10.00").
		AddRow("BLG", "15.25")
	mock.ExpectQuery("SELECT level, hourly_rate FROM payment_rates").
		WithArgs(at).
		WillReturnRows(rows)

	rates, err := repo.ResolveAll(context.Background(), at)
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.Equal(t, "8.5", rates[models.LevelGrado].String())
	assert.Equal(t, "15.25", rates[models.LevelBilingual].String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRepositoryListFiltersEffectiveAt(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "level", "hourly_rate", "effective_from", "effective_to", "created_at", "updated_at"}).
		AddRow("r1", "DR", "12.75", at.AddDate(0, -6, 0), nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("effective_from <= $1 AND (effective_to IS NULL OR effective_to >= $1)")).
		WithArgs(at).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(at).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rates, total, err := repo.List(context.Background(), models.PaymentRateFilter{At: &at})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rates, 1)
	assert.Equal(t, models.LevelDoctor, rates[0].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payment_rates WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
