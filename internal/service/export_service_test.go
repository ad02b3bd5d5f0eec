package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/repository"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
	"github.com/soe-platform/workload-api/pkg/jobs"
)

type exportJobStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (s *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type exportQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *exportQueueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type exportLoadFilesStub struct {
	known map[string]bool
}

func (s exportLoadFilesStub) FindFileByID(ctx context.Context, id string) (*models.LoadFile, error) {
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.LoadFile{ID: id}, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *exportJobStoreStub, *exportQueueStub, *ExportGenerator) {
	t.Helper()
	repo := newExportJobStoreStub()
	queue := &exportQueueStub{}
	generator, _ := newExportGeneratorForTest(t)
	svc := NewExportService(repo, exportLoadFilesStub{known: map[string]bool{"file-1": true}}, queue, generator, zap.NewNop(), ExportServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return svc, repo, queue, generator
}

func TestExportServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newExportServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Type:       models.ExportTypeBillingBudget,
		LoadFileID: "file-1",
		Format:     models.ExportFormatCSV,
	}, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	assert.Contains(t, repo.jobs, resp.ID)
	assert.Equal(t, "admin", repo.jobs[resp.ID].CreatedBy)
}

func TestExportServiceCreateJobUnknownLoadFile(t *testing.T) {
	svc, _, queue, _ := newExportServiceForTest(t)
	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Type:       models.ExportTypeBillingBudget,
		LoadFileID: "missing",
		Format:     models.ExportFormatCSV,
	}, "admin")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "no encontrado")
	assert.Empty(t, queue.jobs)
}

func TestExportServiceCreateJobRejectsUnknownType(t *testing.T) {
	svc, _, _, _ := newExportServiceForTest(t)
	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Type:       models.ExportType("GRADES"),
		LoadFileID: "file-1",
		Format:     models.ExportFormatCSV,
	}, "admin")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportServiceCreateJobEnqueueFailure(t *testing.T) {
	svc, repo, queue, _ := newExportServiceForTest(t)
	queue.err = errors.New("queue full")
	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Type:       models.ExportTypeBillingSummary,
		LoadFileID: "file-1",
		Format:     models.ExportFormatPDF,
	}, "admin")
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestExportServiceGetStatusOwnership(t *testing.T) {
	svc, repo, _, _ := newExportServiceForTest(t)
	repo.jobs["job-1"] = &models.ExportJob{
		ID:        "job-1",
		Type:      models.ExportTypeBillingBudget,
		Params:    models.ExportJobParams{LoadFileID: "file-1", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusProcessing,
		Progress:  10,
		CreatedBy: "coordinator-1",
	}

	resp, err := svc.GetStatus(context.Background(), "job-1", "coordinator-1", models.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusProcessing, resp.Status)
	assert.Equal(t, 10, resp.Progress)

	_, err = svc.GetStatus(context.Background(), "job-1", "coordinator-2", models.RoleCoordinator)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(context.Background(), "job-1", "admin", models.RoleAdmin)
	require.NoError(t, err)
}

func TestExportServiceGetStatusNotFound(t *testing.T) {
	svc, _, _, _ := newExportServiceForTest(t)
	_, err := svc.GetStatus(context.Background(), "nope", "admin", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceResolveDownload(t *testing.T) {
	svc, repo, _, generator := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-download",
		Type:      models.ExportTypeBillingBudget,
		Params:    models.ExportJobParams{LoadFileID: "file-1", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		CreatedBy: "admin",
	}
	repo.jobs[job.ID] = job
	result, err := generator.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL
	now := time.Now()
	job.FinishedAt = &now

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(result.RelativePath), download.Filename)
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	download.File.Close()
}

func TestExportServiceResolveDownloadNotReady(t *testing.T) {
	svc, repo, _, generator := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-pending",
		Type:      models.ExportTypeBillingBudget,
		Params:    models.ExportJobParams{LoadFileID: "file-1", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusProcessing,
		CreatedBy: "admin",
	}
	repo.jobs[job.ID] = job
	result, err := generator.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL

	_, err = svc.ResolveDownload(context.Background(), result.Token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not ready")
}

func TestExportServiceResolveDownloadBadToken(t *testing.T) {
	svc, _, _, _ := newExportServiceForTest(t)
	_, err := svc.ResolveDownload(context.Background(), "garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newExportServiceForTest(t)
	repo.jobs["job-a"] = &models.ExportJob{ID: "job-a", Type: models.ExportTypeBillingBudget, Status: models.ExportStatusQueued}
	repo.jobs["job-b"] = &models.ExportJob{ID: "job-b", Type: models.ExportTypeBillingSummary, Status: models.ExportStatusFinished}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "job-a", queue.jobs[0].ID)
}

type exportGeneratorStub struct {
	result *ExportResult
	err    error
}

func (e exportGeneratorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	repo := newExportJobStoreStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:        "job-1",
		Type:      models.ExportTypeBillingBudget,
		Params:    models.ExportJobParams{LoadFileID: "file-1", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "admin",
	}
	worker := NewExportWorker(repo, exportGeneratorStub{result: &ExportResult{URL: "/api/v1/exports/job-1/download?token=tok"}}, 3, zap.NewNop(), nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusFinished, repo.jobs["job-1"].Status)
	require.Equal(t, 100, repo.jobs["job-1"].Progress)
	require.NotNil(t, repo.jobs["job-1"].ResultURL)
	assert.Contains(t, *repo.jobs["job-1"].ResultURL, "token=tok")
}

func TestExportWorkerHandleFailureExhaustsRetries(t *testing.T) {
	repo := newExportJobStoreStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeBillingBudget,
		Params: models.ExportJobParams{LoadFileID: "file-1", Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	worker := NewExportWorker(repo, exportGeneratorStub{err: errors.New("boom")}, 2, zap.NewNop(), nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	require.Equal(t, models.ExportStatusFailed, repo.jobs["job-1"].Status)
	require.NotNil(t, repo.jobs["job-1"].ErrorMessage)
	assert.Equal(t, "boom", *repo.jobs["job-1"].ErrorMessage)
}

func TestExportWorkerHandleFailureRequeues(t *testing.T) {
	repo := newExportJobStoreStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeBillingBudget,
		Params: models.ExportJobParams{LoadFileID: "file-1", Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	worker := NewExportWorker(repo, exportGeneratorStub{err: errors.New("boom")}, 3, zap.NewNop(), nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	require.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)
	require.Equal(t, 0, repo.jobs["job-1"].Progress)
}
