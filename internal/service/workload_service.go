package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/models"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type workloadRepository interface {
	ListFiles(ctx context.Context, filter models.LoadFileFilter) ([]models.LoadFile, int, error)
	FindFileByID(ctx context.Context, id string) (*models.LoadFile, error)
	CreateWithRecords(ctx context.Context, file *models.LoadFile, records []models.ClassRecord) error
	SoftDeleteFile(ctx context.Context, id string) error
	ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error)
	ListSections(ctx context.Context, fileID string) ([]string, error)
}

type termFinder interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type professorCatalog interface {
	FindByCode(ctx context.Context, code string) (*models.Professor, error)
}

type coordinationCatalog interface {
	FindByCode(ctx context.Context, code string) (*models.Coordination, error)
}

type ingestAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type billingCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// IngestRequest describes one academic-load upload.
type IngestRequest struct {
	TermID     string `validate:"required"`
	Filename   string `validate:"required"`
	UploadedBy string `validate:"required"`
}

// WorkloadService ingests academic-load files and manages their lifecycle.
type WorkloadService struct {
	repo          workloadRepository
	terms         termFinder
	professors    professorCatalog
	coordinations coordinationCatalog
	audit         ingestAuditLogger
	cache         billingCacheInvalidator
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewWorkloadService creates a new workload service instance.
func NewWorkloadService(
	repo workloadRepository,
	terms termFinder,
	professors professorCatalog,
	coordinations coordinationCatalog,
	audit ingestAuditLogger,
	cache billingCacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *WorkloadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{
		repo:          repo,
		terms:         terms,
		professors:    professors,
		coordinations: coordinations,
		audit:         audit,
		cache:         cache,
		validator:     validate,
		logger:        logger,
	}
}

// Ingest parses, validates and stores one uploaded academic-load file. The
// upload is all-or-nothing: any failing row rejects the whole file and the
// response details list every failing row.
func (s *WorkloadService) Ingest(ctx context.Context, req IngestRequest, file io.Reader, meta models.RequestMeta) (*dto.IngestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}

	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	rows, rowErrs, err := parseLoadFile(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid load file")
	}
	if len(rows) == 0 && len(rowErrs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "load file has no data rows")
	}

	professorsByCode := make(map[string]*models.Professor)
	coordinationsByCode := make(map[string]bool)
	subjects := make(map[string]struct{})
	professorCodes := make(map[string]struct{})
	records := make([]models.ClassRecord, 0, len(rows))

	for _, row := range rows {
		prof, ok := professorsByCode[row.ProfessorCode]
		if !ok {
			prof, err = s.professors.FindByCode(ctx, row.ProfessorCode)
			if err != nil && err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve professor")
			}
			professorsByCode[row.ProfessorCode] = prof
		}
		if prof == nil {
			rowErrs = append(rowErrs, dto.RowError{Row: row.Line, Message: fmt.Sprintf("unknown professor_code %q", row.ProfessorCode)})
			continue
		}

		known, ok := coordinationsByCode[row.CoordinationCode]
		if !ok {
			_, err = s.coordinations.FindByCode(ctx, row.CoordinationCode)
			if err != nil && err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve coordination")
			}
			known = err == nil
			coordinationsByCode[row.CoordinationCode] = known
		}
		if !known {
			rowErrs = append(rowErrs, dto.RowError{Row: row.Line, Message: fmt.Sprintf("unknown coordination_code %q", row.CoordinationCode)})
			continue
		}

		subjects[row.SubjectCode] = struct{}{}
		professorCodes[row.ProfessorCode] = struct{}{}
		records = append(records, models.ClassRecord{
			SubjectCode:      row.SubjectCode,
			SubjectName:      row.SubjectName,
			Section:          row.Section,
			ClassDays:        row.DayLabel(),
			StartTime:        row.Block.Start.String(),
			EndTime:          row.Block.End.String(),
			DurationMinutes:  row.Block.DurationMinutes(),
			ProfessorID:      prof.ID,
			CoordinationCode: row.CoordinationCode,
		})
	}

	if len(rowErrs) > 0 {
		sort.Slice(rowErrs, func(i, j int) bool { return rowErrs[i].Row < rowErrs[j].Row })
		message := fmt.Sprintf("load file rejected: %d row(s) failed validation", len(rowErrs))
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, message), rowErrs)
	}

	loadFile := &models.LoadFile{
		Filename:    req.Filename,
		TermID:      term.ID,
		UploadedBy:  req.UploadedBy,
		Status:      models.LoadFileStatusProcessed,
		RowCount:    len(rows),
		RecordCount: len(records),
	}
	if err := s.repo.CreateWithRecords(ctx, loadFile, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store load file")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{
		"filename":     loadFile.Filename,
		"term_id":      loadFile.TermID,
		"record_count": loadFile.RecordCount,
	})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &req.UploadedBy,
		Action:     models.AuditActionIngest,
		Resource:   "load_files",
		ResourceID: &loadFile.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record ingest audit log", zap.Error(err))
	}

	s.logger.Info("load file ingested",
		zap.String("load_file_id", loadFile.ID),
		zap.String("term_id", loadFile.TermID),
		zap.Int("records", loadFile.RecordCount))

	return &dto.IngestResponse{
		File:           *loadFile,
		RowCount:       loadFile.RowCount,
		RecordCount:    loadFile.RecordCount,
		SubjectCount:   len(subjects),
		ProfessorCount: len(professorCodes),
	}, nil
}

// ListFiles returns paginated load files.
func (s *WorkloadService) ListFiles(ctx context.Context, filter models.LoadFileFilter) ([]models.LoadFile, *models.Pagination, error) {
	files, total, err := s.repo.ListFiles(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list load files")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	}
	return files, pagination, nil
}

// GetFile returns a load file by ID.
func (s *WorkloadService) GetFile(ctx context.Context, id string) (*models.LoadFile, error) {
	file, err := s.repo.FindFileByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "archivo de carga no encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	return file, nil
}

// ListRecords returns the class records of a load file, optionally filtered
// by section.
func (s *WorkloadService) ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error) {
	if _, err := s.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListRecords(ctx, fileID, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class records")
	}
	return records, nil
}

// ListSections returns the distinct sections of a load file.
func (s *WorkloadService) ListSections(ctx context.Context, fileID string) ([]string, error) {
	if _, err := s.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	sections, err := s.repo.ListSections(ctx, fileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// DeleteFile soft deletes a load file and drops its cached billing results.
func (s *WorkloadService) DeleteFile(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDeleteFile(ctx, file.ID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "archivo de carga no encontrado")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete load file")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("billing:%s:*", file.ID)); err != nil {
			s.logger.Warn("failed to invalidate billing cache", zap.String("load_file_id", file.ID), zap.Error(err))
		}
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"filename": file.Filename, "term_id": file.TermID})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionDelete,
		Resource:   "load_files",
		ResourceID: &file.ID,
		OldValues:  oldPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record load file delete audit log", zap.Error(err))
	}

	return nil
}
