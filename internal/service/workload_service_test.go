package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/models"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type workloadRepoMock struct {
	files       map[string]*models.LoadFile
	createErr   error
	createdFile *models.LoadFile
	created     []models.ClassRecord
	softDeleted []string
	records     []models.ClassRecordDetail
	sections    []string
}

func (m *workloadRepoMock) ListFiles(ctx context.Context, filter models.LoadFileFilter) ([]models.LoadFile, int, error) {
	files := make([]models.LoadFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, *f)
	}
	return files, len(files), nil
}

func (m *workloadRepoMock) FindFileByID(ctx context.Context, id string) (*models.LoadFile, error) {
	file, ok := m.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return file, nil
}

func (m *workloadRepoMock) CreateWithRecords(ctx context.Context, file *models.LoadFile, records []models.ClassRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if file.ID == "" {
		file.ID = "file-1"
	}
	m.createdFile = file
	m.created = records
	return nil
}

func (m *workloadRepoMock) SoftDeleteFile(ctx context.Context, id string) error {
	if _, ok := m.files[id]; !ok {
		return sql.ErrNoRows
	}
	m.softDeleted = append(m.softDeleted, id)
	return nil
}

func (m *workloadRepoMock) ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error) {
	return m.records, nil
}

func (m *workloadRepoMock) ListSections(ctx context.Context, fileID string) ([]string, error) {
	return m.sections, nil
}

type termFinderStub struct {
	term *models.Term
}

func (s *termFinderStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.term != nil && s.term.ID == id {
		return s.term, nil
	}
	return nil, sql.ErrNoRows
}

type professorCatalogStub struct {
	professors map[string]*models.Professor
	lookups    int
}

func (s *professorCatalogStub) FindByCode(ctx context.Context, code string) (*models.Professor, error) {
	s.lookups++
	prof, ok := s.professors[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return prof, nil
}

type coordinationCatalogStub struct {
	codes map[string]bool
}

func (s *coordinationCatalogStub) FindByCode(ctx context.Context, code string) (*models.Coordination, error) {
	if !s.codes[code] {
		return nil, sql.ErrNoRows
	}
	return &models.Coordination{ID: "coord-" + code, Code: code}, nil
}

type workloadAuditStub struct {
	logs []*models.AuditLog
}

func (s *workloadAuditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type workloadCacheStub struct {
	patterns []string
}

func (s *workloadCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newTestWorkloadService(repo *workloadRepoMock, terms *termFinderStub, profs *professorCatalogStub, coords *coordinationCatalogStub, audit *workloadAuditStub, cache *workloadCacheStub) *WorkloadService {
	return NewWorkloadService(repo, terms, profs, coords, audit, cache, nil, zap.NewNop())
}

func TestWorkloadServiceIngestSuccess(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{}}
	terms := &termFinderStub{term: &models.Term{ID: "term-1", Name: "2025-1"}}
	profs := &professorCatalogStub{professors: map[string]*models.Professor{
		"P001": {ID: "prof-1", Code: "P001"},
		"P002": {ID: "prof-2", Code: "P002"},
	}}
	coords := &coordinationCatalogStub{codes: map[string]bool{"COORD": true}}
	audit := &workloadAuditStub{}
	service := newTestWorkloadService(repo, terms, profs, coords, audit, &workloadCacheStub{})

	csv := loadFileHeader +
		"MAT101,Cálculo I,A,Lu-Mi,08:00,09:30,P001,COORD\n" +
		"MAT101,Cálculo I,B,Lu-Mi,08:00,09:30,P001,COORD\n" +
		"FIS201,Física II,A,Ma,18:00,20:00,P002,COORD\n"

	req := IngestRequest{TermID: "term-1", Filename: "carga_2025.csv", UploadedBy: "user-1"}
	resp, err := service.Ingest(context.Background(), req, strings.NewReader(csv), models.RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.RowCount)
	assert.Equal(t, 3, resp.RecordCount)
	assert.Equal(t, 2, resp.SubjectCount)
	assert.Equal(t, 2, resp.ProfessorCount)
	assert.Equal(t, models.LoadFileStatusProcessed, resp.File.Status)
	assert.NotEmpty(t, resp.File.ID)

	require.NotNil(t, repo.createdFile)
	assert.Equal(t, "carga_2025.csv", repo.createdFile.Filename)
	assert.Equal(t, "term-1", repo.createdFile.TermID)
	require.Len(t, repo.created, 3)
	assert.Equal(t, "Lu-Mi", repo.created[0].ClassDays)
	assert.Equal(t, "08:00", repo.created[0].StartTime)
	assert.Equal(t, "09:30", repo.created[0].EndTime)
	assert.Equal(t, 90, repo.created[0].DurationMinutes)
	assert.Equal(t, "prof-1", repo.created[0].ProfessorID)
	assert.Equal(t, "prof-2", repo.created[2].ProfessorID)

	// Catalog lookups are memoized per distinct code.
	assert.Equal(t, 2, profs.lookups)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionIngest, audit.logs[0].Action)
	assert.Equal(t, "load_files", audit.logs[0].Resource)
}

func TestWorkloadServiceIngestRejectsUnknownCodes(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{}}
	terms := &termFinderStub{term: &models.Term{ID: "term-1"}}
	profs := &professorCatalogStub{professors: map[string]*models.Professor{
		"P001": {ID: "prof-1", Code: "P001"},
	}}
	coords := &coordinationCatalogStub{codes: map[string]bool{"COORD": true}}
	service := newTestWorkloadService(repo, terms, profs, coords, &workloadAuditStub{}, &workloadCacheStub{})

	csv := loadFileHeader +
		"MAT101,Cálculo I,A,Lu,08:00,09:30,P404,COORD\n" +
		"MAT102,Cálculo II,A,Lu,08:00,09:30,P001,NOPE\n"

	req := IngestRequest{TermID: "term-1", Filename: "carga.csv", UploadedBy: "user-1"}
	_, err := service.Ingest(context.Background(), req, strings.NewReader(csv), models.RequestMeta{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	details, ok := appErr.Details.([]dto.RowError)
	require.True(t, ok)
	require.Len(t, details, 2)
	assert.Equal(t, 2, details[0].Row)
	assert.Contains(t, details[0].Message, "P404")
	assert.Equal(t, 3, details[1].Row)
	assert.Contains(t, details[1].Message, "NOPE")

	assert.Nil(t, repo.createdFile)
}

func TestWorkloadServiceIngestRejectsBadRows(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{}}
	terms := &termFinderStub{term: &models.Term{ID: "term-1"}}
	profs := &professorCatalogStub{professors: map[string]*models.Professor{
		"P001": {ID: "prof-1", Code: "P001"},
	}}
	coords := &coordinationCatalogStub{codes: map[string]bool{"COORD": true}}
	service := newTestWorkloadService(repo, terms, profs, coords, &workloadAuditStub{}, &workloadCacheStub{})

	csv := loadFileHeader +
		"MAT101,Cálculo I,A,Lu,08:00,09:30,P001,COORD\n" +
		"MAT102,Cálculo II,A,Lu,borked,09:30,P001,COORD\n"

	req := IngestRequest{TermID: "term-1", Filename: "carga.csv", UploadedBy: "user-1"}
	_, err := service.Ingest(context.Background(), req, strings.NewReader(csv), models.RequestMeta{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "1 row(s)")
	assert.Nil(t, repo.createdFile)
}

func TestWorkloadServiceIngestTermNotFound(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{}}
	service := newTestWorkloadService(repo, &termFinderStub{}, &professorCatalogStub{}, &coordinationCatalogStub{}, &workloadAuditStub{}, &workloadCacheStub{})

	req := IngestRequest{TermID: "missing", Filename: "carga.csv", UploadedBy: "user-1"}
	_, err := service.Ingest(context.Background(), req, strings.NewReader(loadFileHeader), models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestWorkloadServiceIngestEmptyFile(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{}}
	terms := &termFinderStub{term: &models.Term{ID: "term-1"}}
	service := newTestWorkloadService(repo, terms, &professorCatalogStub{}, &coordinationCatalogStub{}, &workloadAuditStub{}, &workloadCacheStub{})

	req := IngestRequest{TermID: "term-1", Filename: "carga.csv", UploadedBy: "user-1"}
	_, err := service.Ingest(context.Background(), req, strings.NewReader(loadFileHeader), models.RequestMeta{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "no data rows")
}

func TestWorkloadServiceGetFileNotFound(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{}}
	service := newTestWorkloadService(repo, &termFinderStub{}, &professorCatalogStub{}, &coordinationCatalogStub{}, &workloadAuditStub{}, &workloadCacheStub{})

	_, err := service.GetFile(context.Background(), "missing")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "no encontrado")
}

func TestWorkloadServiceDeleteFileInvalidatesBillingCache(t *testing.T) {
	repo := &workloadRepoMock{files: map[string]*models.LoadFile{
		"file-1": {ID: "file-1", Filename: "carga.csv", TermID: "term-1"},
	}}
	audit := &workloadAuditStub{}
	cache := &workloadCacheStub{}
	service := newTestWorkloadService(repo, &termFinderStub{}, &professorCatalogStub{}, &coordinationCatalogStub{}, audit, cache)

	err := service.DeleteFile(context.Background(), "file-1", "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, []string{"file-1"}, repo.softDeleted)
	require.Len(t, cache.patterns, 1)
	assert.Equal(t, "billing:file-1:*", cache.patterns[0])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDelete, audit.logs[0].Action)
}

func TestWorkloadServiceListRecordsRequiresFile(t *testing.T) {
	repo := &workloadRepoMock{
		files: map[string]*models.LoadFile{
			"file-1": {ID: "file-1"},
		},
		records: []models.ClassRecordDetail{
			{ClassRecord: models.ClassRecord{ID: "rec-1", SubjectCode: "MAT101"}},
		},
	}
	service := newTestWorkloadService(repo, &termFinderStub{}, &professorCatalogStub{}, &coordinationCatalogStub{}, &workloadAuditStub{}, &workloadCacheStub{})

	records, err := service.ListRecords(context.Background(), "file-1", "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = service.ListRecords(context.Background(), "missing", "")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "no encontrado")
}
