package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/models"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type professorRepository interface {
	List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, int, error)
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, professor *models.Professor) error
	Update(ctx context.Context, professor *models.Professor) error
	SoftDelete(ctx context.Context, id string) error
}

// CreateProfessorRequest captures fields for creating professors.
type CreateProfessorRequest struct {
	Code           string  `json:"code" validate:"required"`
	Email          string  `json:"email" validate:"omitempty,email"`
	FullName       string  `json:"full_name" validate:"required"`
	Category       *string `json:"category"`
	Bilingual      bool    `json:"bilingual"`
	DoctorateCount int     `json:"doctorate_count" validate:"gte=0"`
	MastersCount   int     `json:"masters_count" validate:"gte=0"`
	CoordinationID *string `json:"coordination_id"`
}

// UpdateProfessorRequest modifies professor fields.
type UpdateProfessorRequest struct {
	Code           string  `json:"code" validate:"required"`
	Email          string  `json:"email" validate:"omitempty,email"`
	FullName       string  `json:"full_name" validate:"required"`
	Category       *string `json:"category"`
	Bilingual      bool    `json:"bilingual"`
	DoctorateCount int     `json:"doctorate_count" validate:"gte=0"`
	MastersCount   int     `json:"masters_count" validate:"gte=0"`
	CoordinationID *string `json:"coordination_id"`
}

// ProfessorService handles professor catalog workflows.
type ProfessorService struct {
	repo      professorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfessorService creates a new professor service.
func NewProfessorService(repo professorRepository, validate *validator.Validate, logger *zap.Logger) *ProfessorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated professors.
func (s *ProfessorService) List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, *models.Pagination, error) {
	professors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professors")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return professors, pagination, nil
}

// Get returns a professor by identifier.
func (s *ProfessorService) Get(ctx context.Context, id string) (*models.Professor, error) {
	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// Create adds a new professor ensuring code uniqueness.
func (s *ProfessorService) Create(ctx context.Context, req CreateProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "professor code already exists")
	}

	professor := &models.Professor{
		Code:           req.Code,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:       req.FullName,
		Category:       req.Category,
		Bilingual:      req.Bilingual,
		DoctorateCount: req.DoctorateCount,
		MastersCount:   req.MastersCount,
		CoordinationID: req.CoordinationID,
	}

	if err := s.repo.Create(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professor")
	}
	return professor, nil
}

// Update modifies an existing professor.
func (s *ProfessorService) Update(ctx context.Context, id string, req UpdateProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}

	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "professor code already exists")
	}

	professor.Code = req.Code
	professor.Email = strings.ToLower(strings.TrimSpace(req.Email))
	professor.FullName = req.FullName
	professor.Category = req.Category
	professor.Bilingual = req.Bilingual
	professor.DoctorateCount = req.DoctorateCount
	professor.MastersCount = req.MastersCount
	professor.CoordinationID = req.CoordinationID

	if err := s.repo.Update(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update professor")
	}
	return professor, nil
}

// Delete moves a professor into the recycle bin. Class records already
// ingested keep pointing at the professor so historical billing still works.
func (s *ProfessorService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete professor")
	}
	return nil
}
