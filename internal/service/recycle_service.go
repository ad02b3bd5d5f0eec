package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/models"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type recycleLister interface {
	List(ctx context.Context, resource models.RecycleResource, page, pageSize int) ([]models.RecycleItem, int, error)
}

// recycleStore is the restore/purge surface every soft-deletable catalog
// repository exposes.
type recycleStore interface {
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

type loadFileRecycleStore interface {
	RestoreFile(ctx context.Context, id string) error
	PurgeFile(ctx context.Context, id string) error
}

type recycleAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// loadFileStoreAdapter lets the load-file repository take part in the
// generic restore/purge dispatch.
type loadFileStoreAdapter struct {
	repo loadFileRecycleStore
}

func (a loadFileStoreAdapter) Restore(ctx context.Context, id string) error {
	return a.repo.RestoreFile(ctx, id)
}

func (a loadFileStoreAdapter) Purge(ctx context.Context, id string) error {
	return a.repo.PurgeFile(ctx, id)
}

// RecycleService lists, restores and permanently purges soft-deleted rows
// across every resource kind that participates in the recycle bin.
type RecycleService struct {
	repo          recycleLister
	coordinations recycleStore
	courses       recycleStore
	subjects      recycleStore
	professors    recycleStore
	loadFiles     loadFileRecycleStore
	cache         billingCacheInvalidator
	audit         recycleAuditLogger
	logger        *zap.Logger
}

// NewRecycleService creates a new recycle bin service instance.
func NewRecycleService(
	repo recycleLister,
	coordinations recycleStore,
	courses recycleStore,
	subjects recycleStore,
	professors recycleStore,
	loadFiles loadFileRecycleStore,
	cache billingCacheInvalidator,
	audit recycleAuditLogger,
	logger *zap.Logger,
) *RecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecycleService{
		repo:          repo,
		coordinations: coordinations,
		courses:       courses,
		subjects:      subjects,
		professors:    professors,
		loadFiles:     loadFiles,
		cache:         cache,
		audit:         audit,
		logger:        logger,
	}
}

func (s *RecycleService) store(resource models.RecycleResource) (recycleStore, error) {
	switch resource {
	case models.RecycleResourceCoordination:
		return s.coordinations, nil
	case models.RecycleResourceCourse:
		return s.courses, nil
	case models.RecycleResourceSubject:
		return s.subjects, nil
	case models.RecycleResourceProfessor:
		return s.professors, nil
	case models.RecycleResourceLoadFile:
		return loadFileStoreAdapter{repo: s.loadFiles}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown recycle resource %q", resource))
	}
}

// List returns soft-deleted rows, optionally narrowed to one resource kind.
func (s *RecycleService) List(ctx context.Context, resource models.RecycleResource, page, pageSize int) ([]models.RecycleItem, *models.Pagination, error) {
	if resource != "" && !resource.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown recycle resource %q", resource))
	}

	items, total, err := s.repo.List(ctx, resource, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recycle bin")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return items, pagination, nil
}

// Restore brings a soft-deleted row back into circulation.
func (s *RecycleService) Restore(ctx context.Context, resource models.RecycleResource, id string, actorID string, meta models.RequestMeta) error {
	store, err := s.store(resource)
	if err != nil {
		return err
	}

	if err := store.Restore(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "item not found in recycle bin")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore item")
	}

	if resource == models.RecycleResourceLoadFile {
		s.invalidateBilling(ctx, id)
	}

	s.recordAudit(ctx, models.AuditActionRestore, resource, id, actorID, meta)
	return nil
}

// Purge permanently deletes a soft-deleted row. Only rows already in the
// recycle bin can be purged.
func (s *RecycleService) Purge(ctx context.Context, resource models.RecycleResource, id string, actorID string, meta models.RequestMeta) error {
	store, err := s.store(resource)
	if err != nil {
		return err
	}

	if err := store.Purge(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "item not found in recycle bin")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge item")
	}

	if resource == models.RecycleResourceLoadFile {
		s.invalidateBilling(ctx, id)
	}

	s.recordAudit(ctx, models.AuditActionPurge, resource, id, actorID, meta)
	return nil
}

func (s *RecycleService) invalidateBilling(ctx context.Context, fileID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("billing:%s:*", fileID)); err != nil {
		s.logger.Warn("failed to invalidate billing cache", zap.String("load_file_id", fileID), zap.Error(err))
	}
}

func (s *RecycleService) recordAudit(ctx context.Context, action string, resource models.RecycleResource, id, actorID string, meta models.RequestMeta) {
	payload, _ := json.Marshal(map[string]interface{}{"resource": resource, "id": id})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   string(resource),
		ResourceID: &id,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record recycle audit log", zap.Error(err))
	}
}
