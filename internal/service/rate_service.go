package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/models"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type rateRepository interface {
	List(ctx context.Context, filter models.PaymentRateFilter) ([]models.PaymentRate, int, error)
	FindByID(ctx context.Context, id string) (*models.PaymentRate, error)
	HasOverlap(ctx context.Context, level models.LevelCode, from time.Time, to *time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, rate *models.PaymentRate) error
	Update(ctx context.Context, rate *models.PaymentRate) error
	Delete(ctx context.Context, id string) error
}

// CreateRateRequest captures fields for adding a rate history row.
type CreateRateRequest struct {
	Level         models.LevelCode `json:"level" validate:"required"`
	HourlyRate    decimal.Decimal  `json:"hourly_rate" validate:"required"`
	EffectiveFrom time.Time        `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time       `json:"effective_to"`
}

// UpdateRateRequest modifies a rate history row.
type UpdateRateRequest struct {
	Level         models.LevelCode `json:"level" validate:"required"`
	HourlyRate    decimal.Decimal  `json:"hourly_rate" validate:"required"`
	EffectiveFrom time.Time        `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time       `json:"effective_to"`
}

// RateService manages the hourly payment rate history. Effective ranges per
// level may never overlap so billing resolves exactly one rate per level.
type RateService struct {
	repo      rateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRateService creates a new rate service.
func NewRateService(repo rateRepository, validate *validator.Validate, logger *zap.Logger) *RateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated rate history rows.
func (s *RateService) List(ctx context.Context, filter models.PaymentRateFilter) ([]models.PaymentRate, *models.Pagination, error) {
	rates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rates")
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
	return rates, pagination, nil
}

// Get returns a rate history row by identifier.
func (s *RateService) Get(ctx context.Context, id string) (*models.PaymentRate, error) {
	rate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate")
	}
	return rate, nil
}

// Create adds a rate history row after checking the level's ranges stay
// disjoint.
func (s *RateService) Create(ctx context.Context, req CreateRateRequest) (*models.PaymentRate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate payload")
	}
	if err := s.validateRate(req.Level, req.HourlyRate, req.EffectiveFrom, req.EffectiveTo); err != nil {
		return nil, err
	}

	overlaps, err := s.repo.HasOverlap(ctx, req.Level, req.EffectiveFrom, req.EffectiveTo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rate overlap")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrRateOverlap, "rate range overlaps an existing range for the level")
	}

	rate := &models.PaymentRate{
		Level:         req.Level,
		HourlyRate:    req.HourlyRate,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
	}

	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rate")
	}
	return rate, nil
}

// Update modifies a rate history row, re-checking range disjointness.
func (s *RateService) Update(ctx context.Context, id string, req UpdateRateRequest) (*models.PaymentRate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate payload")
	}
	if err := s.validateRate(req.Level, req.HourlyRate, req.EffectiveFrom, req.EffectiveTo); err != nil {
		return nil, err
	}

	rate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate")
	}

	overlaps, err := s.repo.HasOverlap(ctx, req.Level, req.EffectiveFrom, req.EffectiveTo, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rate overlap")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrRateOverlap, "rate range overlaps an existing range for the level")
	}

	rate.Level = req.Level
	rate.HourlyRate = req.HourlyRate
	rate.EffectiveFrom = req.EffectiveFrom
	rate.EffectiveTo = req.EffectiveTo

	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rate")
	}
	return rate, nil
}

// Delete removes a rate history row.
func (s *RateService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "rate not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rate")
	}
	return nil
}

func (s *RateService) validateRate(level models.LevelCode, hourlyRate decimal.Decimal, from time.Time, to *time.Time) error {
	if !level.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown academic level code")
	}
	if !hourlyRate.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "hourly_rate must be positive")
	}
	if from.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "effective_from is required")
	}
	if to != nil && !from.Before(*to) {
		return appErrors.Clone(appErrors.ErrValidation, "effective_from must be before effective_to")
	}
	return nil
}
