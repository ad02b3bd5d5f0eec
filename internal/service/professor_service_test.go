package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/models"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type mockProfessorRepo struct {
	professors map[string]*models.Professor
	listErr    error
	existsErr  error
	deleted    []string
	nextID     int
}

func (m *mockProfessorRepo) List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var professors []models.Professor
	for _, p := range m.professors {
		professors = append(professors, *p)
	}
	return professors, len(professors), nil
}

func (m *mockProfessorRepo) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	if p, ok := m.professors[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfessorRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for id, p := range m.professors {
		if p.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProfessorRepo) Create(ctx context.Context, professor *models.Professor) error {
	if m.professors == nil {
		m.professors = make(map[string]*models.Professor)
	}
	m.nextID++
	professor.ID = fmt.Sprintf("prof-%d", m.nextID)
	copy := *professor
	m.professors[professor.ID] = &copy
	return nil
}

func (m *mockProfessorRepo) Update(ctx context.Context, professor *models.Professor) error {
	copy := *professor
	m.professors[professor.ID] = &copy
	return nil
}

func (m *mockProfessorRepo) SoftDelete(ctx context.Context, id string) error {
	if _, ok := m.professors[id]; !ok {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	delete(m.professors, id)
	return nil
}

func TestProfessorServiceCreateNormalizesCode(t *testing.T) {
	repo := &mockProfessorRepo{}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	professor, err := svc.Create(context.Background(), CreateProfessorRequest{
		Code:         " p001 ",
		Email:        "Laura.Ortiz@SOE.edu",
		FullName:     "Laura Ortiz",
		MastersCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "P001", professor.Code)
	assert.Equal(t, "laura.ortiz@soe.edu", professor.Email)
	assert.NotEmpty(t, professor.ID)
}

func TestProfessorServiceCreateDuplicateCode(t *testing.T) {
	repo := &mockProfessorRepo{professors: map[string]*models.Professor{
		"prof-1": {ID: "prof-1", Code: "P001", FullName: "Laura Ortiz"},
	}}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateProfessorRequest{Code: "p001", FullName: "Diego Marín"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProfessorServiceCreateRejectsInvalidEmail(t *testing.T) {
	svc := NewProfessorService(&mockProfessorRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateProfessorRequest{Code: "P002", Email: "not-an-email", FullName: "Diego Marín"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProfessorServiceUpdateKeepsOwnCode(t *testing.T) {
	repo := &mockProfessorRepo{professors: map[string]*models.Professor{
		"prof-1": {ID: "prof-1", Code: "P001", FullName: "Laura Ortiz", MastersCount: 1},
	}}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	professor, err := svc.Update(context.Background(), "prof-1", UpdateProfessorRequest{
		Code:           "P001",
		FullName:       "Laura Ortiz",
		MastersCount:   2,
		DoctorateCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, professor.MastersCount)
	assert.Equal(t, 1, professor.DoctorateCount)
}

func TestProfessorServiceUpdateDuplicateCode(t *testing.T) {
	repo := &mockProfessorRepo{professors: map[string]*models.Professor{
		"prof-1": {ID: "prof-1", Code: "P001", FullName: "Laura Ortiz"},
		"prof-2": {ID: "prof-2", Code: "P002", FullName: "Diego Marín"},
	}}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "prof-2", UpdateProfessorRequest{Code: "P001", FullName: "Diego Marín"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProfessorServiceGetNotFound(t *testing.T) {
	svc := NewProfessorService(&mockProfessorRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProfessorServiceDeleteSoftDeletes(t *testing.T) {
	repo := &mockProfessorRepo{professors: map[string]*models.Professor{
		"prof-1": {ID: "prof-1", Code: "P001", FullName: "Laura Ortiz"},
	}}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "prof-1"))
	assert.Equal(t, []string{"prof-1"}, repo.deleted)
}

func TestProfessorServiceListDefaultsPagination(t *testing.T) {
	repo := &mockProfessorRepo{professors: map[string]*models.Professor{
		"prof-1": {ID: "prof-1", Code: "P001"},
	}}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	_, pagination, err := svc.List(context.Background(), models.ProfessorFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestProfessorServiceListRepositoryError(t *testing.T) {
	repo := &mockProfessorRepo{listErr: errors.New("boom")}
	svc := NewProfessorService(repo, validator.New(), zap.NewNop())

	_, _, err := svc.List(context.Background(), models.ProfessorFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
