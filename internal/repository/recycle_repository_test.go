package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/models"
)

func newRecycleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRecycleRepositoryListAllResources(t *testing.T) {
	db, mock, cleanup := newRecycleRepoMock(t)
	defer cleanup()
	repo := NewRecycleRepository(db)

	rows := sqlmock.NewRows([]string{"resource", "id", "label", "deleted_at"}).
		AddRow("professors", "p1", "Prof A", time.Now()).
		AddRow("subjects", "s1", "Calculus I", time.Now().Add(-time.Hour))
	mock.ExpectQuery("UNION ALL").WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	items, total, err := repo.List(context.Background(), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, models.RecycleResourceProfessor, items[0].Resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecycleRepositoryListSingleResource(t *testing.T) {
	db, mock, cleanup := newRecycleRepoMock(t)
	defer cleanup()
	repo := NewRecycleRepository(db)

	rows := sqlmock.NewRows([]string{"resource", "id", "label", "deleted_at"}).
		AddRow("load-files", "f1", "carga.csv", time.Now())
	mock.ExpectQuery("FROM load_files WHERE deleted_at IS NOT NULL").WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.RecycleResourceLoadFile, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "carga.csv", items[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecycleRepositoryListUnknownResource(t *testing.T) {
	db, _, cleanup := newRecycleRepoMock(t)
	defer cleanup()
	repo := NewRecycleRepository(db)

	_, _, err := repo.List(context.Background(), models.RecycleResource("widgets"), 1, 20)
	assert.Error(t, err)
}
