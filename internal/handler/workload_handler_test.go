package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/middleware"
	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/config"
)

const uploadCSVHeader = "subject_code,subject_name,section,class_days,start_time,end_time,professor_code,coordination_code\n"

type loadRepoStub struct {
	files       map[string]*models.LoadFile
	createdFile *models.LoadFile
	created     []models.ClassRecord
	softDeleted []string
	records     []models.ClassRecordDetail
	sections    []string
}

func (m *loadRepoStub) ListFiles(ctx context.Context, filter models.LoadFileFilter) ([]models.LoadFile, int, error) {
	files := make([]models.LoadFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, *f)
	}
	return files, len(files), nil
}

func (m *loadRepoStub) FindFileByID(ctx context.Context, id string) (*models.LoadFile, error) {
	file, ok := m.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return file, nil
}

func (m *loadRepoStub) CreateWithRecords(ctx context.Context, file *models.LoadFile, records []models.ClassRecord) error {
	if file.ID == "" {
		file.ID = "file-1"
	}
	m.createdFile = file
	m.created = records
	return nil
}

func (m *loadRepoStub) SoftDeleteFile(ctx context.Context, id string) error {
	if _, ok := m.files[id]; !ok {
		return sql.ErrNoRows
	}
	m.softDeleted = append(m.softDeleted, id)
	return nil
}

func (m *loadRepoStub) ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error) {
	return m.records, nil
}

func (m *loadRepoStub) ListSections(ctx context.Context, fileID string) ([]string, error) {
	return m.sections, nil
}

type loadTermStub struct {
	term *models.Term
}

func (s *loadTermStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.term != nil && s.term.ID == id {
		return s.term, nil
	}
	return nil, sql.ErrNoRows
}

type loadProfessorStub struct {
	professors map[string]*models.Professor
}

func (s *loadProfessorStub) FindByCode(ctx context.Context, code string) (*models.Professor, error) {
	prof, ok := s.professors[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return prof, nil
}

type loadCoordinationStub struct {
	codes map[string]bool
}

func (s *loadCoordinationStub) FindByCode(ctx context.Context, code string) (*models.Coordination, error) {
	if !s.codes[code] {
		return nil, sql.ErrNoRows
	}
	return &models.Coordination{ID: "coord-" + code, Code: code}, nil
}

type loadAuditStub struct {
	logs []*models.AuditLog
}

func (s *loadAuditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type loadCacheStub struct {
	patterns []string
}

func (s *loadCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newWorkloadTestHandler(repo *loadRepoStub, metrics *service.MetricsService, ingest config.IngestConfig) *WorkloadHandler {
	terms := &loadTermStub{term: &models.Term{ID: "term-1", Name: "2025-1"}}
	profs := &loadProfessorStub{professors: map[string]*models.Professor{
		"P001": {ID: "prof-1", Code: "P001"},
		"P002": {ID: "prof-2", Code: "P002"},
	}}
	coords := &loadCoordinationStub{codes: map[string]bool{"COORD": true}}
	svc := service.NewWorkloadService(repo, terms, profs, coords, &loadAuditStub{}, &loadCacheStub{}, nil, zap.NewNop())
	return NewWorkloadHandler(svc, metrics, ingest)
}

type uploadForm struct {
	termID      string
	filename    string
	contentType string
	payload     string
}

func uploadRequest(t *testing.T, form uploadForm) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if form.termID != "" {
		require.NoError(t, w.WriteField("term_id", form.termID))
	}
	if form.filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, form.filename))
		if form.contentType != "" {
			header.Set("Content-Type", form.contentType)
		}
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(form.payload))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/load-files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func performUpload(t *testing.T, h *WorkloadHandler, req *http.Request, claims *models.JWTClaims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	h.Upload(c)
	return w
}

func coordinatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleCoordinator}
}

func TestWorkloadHandlerUploadSuccess(t *testing.T) {
	repo := &loadRepoStub{files: map[string]*models.LoadFile{}}
	metrics := service.NewMetricsService()
	h := newWorkloadTestHandler(repo, metrics, config.IngestConfig{})

	csv := uploadCSVHeader +
		"MAT101,Cálculo I,A,Lu-Mi,08:00,09:30,P001,COORD\n" +
		"FIS201,Física II,A,Ma,18:00,20:00,P002,COORD\n"
	req := uploadRequest(t, uploadForm{termID: "term-1", filename: "carga_2025.csv", contentType: "text/csv", payload: csv})

	w := performUpload(t, h, req, coordinatorClaims())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var envelope struct {
		Data dto.IngestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.RecordCount)
	assert.Equal(t, 2, envelope.Data.SubjectCount)
	assert.Equal(t, "carga_2025.csv", envelope.Data.File.Filename)

	require.NotNil(t, repo.createdFile)
	assert.Equal(t, "user-1", repo.createdFile.UploadedBy)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.FilesIngested)
	assert.Equal(t, uint64(2), snap.RecordsIngested)
}

func TestWorkloadHandlerUploadRequiresAuth(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{}, nil, config.IngestConfig{})
	req := uploadRequest(t, uploadForm{termID: "term-1", filename: "carga.csv", payload: uploadCSVHeader})

	w := performUpload(t, h, req, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkloadHandlerUploadRequiresTermID(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{}, nil, config.IngestConfig{})
	req := uploadRequest(t, uploadForm{filename: "carga.csv", payload: uploadCSVHeader})

	w := performUpload(t, h, req, coordinatorClaims())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "term_id is required")
}

func TestWorkloadHandlerUploadRequiresFile(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{}, nil, config.IngestConfig{})
	req := uploadRequest(t, uploadForm{termID: "term-1"})

	w := performUpload(t, h, req, coordinatorClaims())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")
}

func TestWorkloadHandlerUploadRejectsOversizedFile(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{}, nil, config.IngestConfig{MaxFileSizeBytes: 16})
	req := uploadRequest(t, uploadForm{termID: "term-1", filename: "carga.csv", payload: uploadCSVHeader})

	w := performUpload(t, h, req, coordinatorClaims())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "maximum upload size")
}

func TestWorkloadHandlerUploadRejectsUnsupportedType(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{}, nil, config.IngestConfig{AllowedMIMEs: []string{"text/csv"}})
	req := uploadRequest(t, uploadForm{termID: "term-1", filename: "carga.pdf", contentType: "application/pdf", payload: "%PDF-1.4"})

	w := performUpload(t, h, req, coordinatorClaims())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestWorkloadHandlerUploadReportsRowErrors(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{files: map[string]*models.LoadFile{}}, nil, config.IngestConfig{})

	csv := uploadCSVHeader + "MAT101,Cálculo I,A,Lu,08:00,09:30,P404,COORD\n"
	req := uploadRequest(t, uploadForm{termID: "term-1", filename: "carga.csv", contentType: "text/csv", payload: csv})

	w := performUpload(t, h, req, coordinatorClaims())
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Details []struct {
				Row     int    `json:"row"`
				Message string `json:"message"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Error.Message, "1 row(s)")
	require.Len(t, envelope.Error.Details, 1)
	assert.Equal(t, 2, envelope.Error.Details[0].Row)
	assert.Contains(t, envelope.Error.Details[0].Message, "P404")
}

func TestWorkloadHandlerListUsesQueryFilters(t *testing.T) {
	repo := &loadRepoStub{files: map[string]*models.LoadFile{
		"file-1": {ID: "file-1", Filename: "carga.csv", TermID: "term-1"},
	}}
	h := newWorkloadTestHandler(repo, nil, config.IngestConfig{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/load-files?page=2&page_size=5", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       []models.LoadFile  `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
	assert.Equal(t, 5, envelope.Pagination.PageSize)
}

func TestWorkloadHandlerGetNotFound(t *testing.T) {
	h := newWorkloadTestHandler(&loadRepoStub{files: map[string]*models.LoadFile{}}, nil, config.IngestConfig{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/load-files/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no encontrado")
}

func TestWorkloadHandlerDeleteReturnsNoContent(t *testing.T) {
	repo := &loadRepoStub{files: map[string]*models.LoadFile{
		"file-1": {ID: "file-1", Filename: "carga.csv", TermID: "term-1"},
	}}
	h := newWorkloadTestHandler(repo, nil, config.IngestConfig{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/load-files/file-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "file-1"}}
	c.Set(middleware.ContextUserKey, coordinatorClaims())
	h.Delete(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"file-1"}, repo.softDeleted)
}
