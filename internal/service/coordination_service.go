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

type coordinationRepository interface {
	List(ctx context.Context, filter models.CoordinationFilter) ([]models.Coordination, int, error)
	FindByID(ctx context.Context, id string) (*models.Coordination, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, coordination *models.Coordination) error
	Update(ctx context.Context, coordination *models.Coordination) error
	SoftDelete(ctx context.Context, id string) error
}

// CreateCoordinationRequest captures fields for creating coordinations.
type CreateCoordinationRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// UpdateCoordinationRequest modifies coordination fields.
type UpdateCoordinationRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// CoordinationService handles coordination catalog workflows.
type CoordinationService struct {
	repo      coordinationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoordinationService creates a new coordination service.
func NewCoordinationService(repo coordinationRepository, validate *validator.Validate, logger *zap.Logger) *CoordinationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoordinationService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated coordinations.
func (s *CoordinationService) List(ctx context.Context, filter models.CoordinationFilter) ([]models.Coordination, *models.Pagination, error) {
	coordinations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coordinations")
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
	return coordinations, pagination, nil
}

// Get returns a coordination by identifier.
func (s *CoordinationService) Get(ctx context.Context, id string) (*models.Coordination, error) {
	coordination, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordination not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coordination")
	}
	return coordination, nil
}

// Create adds a new coordination ensuring code uniqueness.
func (s *CoordinationService) Create(ctx context.Context, req CreateCoordinationRequest) (*models.Coordination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coordination payload")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coordination code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "coordination code already exists")
	}

	coordination := &models.Coordination{Code: req.Code, Name: req.Name}

	if err := s.repo.Create(ctx, coordination); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coordination")
	}
	return coordination, nil
}

// Update modifies an existing coordination.
func (s *CoordinationService) Update(ctx context.Context, id string, req UpdateCoordinationRequest) (*models.Coordination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coordination payload")
	}

	coordination, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordination not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coordination")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coordination code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "coordination code already exists")
	}

	coordination.Code = req.Code
	coordination.Name = req.Name

	if err := s.repo.Update(ctx, coordination); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coordination")
	}
	return coordination, nil
}

// Delete moves a coordination into the recycle bin.
func (s *CoordinationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "coordination not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coordination")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete coordination")
	}
	return nil
}
