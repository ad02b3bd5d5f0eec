package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/soe-platform/workload-api/internal/models"
)

// RecycleRepository reads soft-deleted rows across every resource that
// participates in the recycle bin.
type RecycleRepository struct {
	db *sqlx.DB
}

// NewRecycleRepository constructs a RecycleRepository.
func NewRecycleRepository(db *sqlx.DB) *RecycleRepository {
	return &RecycleRepository{db: db}
}

var recycleSelects = map[models.RecycleResource]string{
	models.RecycleResourceCoordination: "SELECT 'coordinations' AS resource, id, name AS label, deleted_at FROM coordinations WHERE deleted_at IS NOT NULL",
	models.RecycleResourceCourse:       "SELECT 'courses' AS resource, id, name AS label, deleted_at FROM courses WHERE deleted_at IS NOT NULL",
	models.RecycleResourceSubject:      "SELECT 'subjects' AS resource, id, name AS label, deleted_at FROM subjects WHERE deleted_at IS NOT NULL",
	models.RecycleResourceProfessor:    "SELECT 'professors' AS resource, id, full_name AS label, deleted_at FROM professors WHERE deleted_at IS NOT NULL",
	models.RecycleResourceLoadFile:     "SELECT 'load-files' AS resource, id, filename AS label, deleted_at FROM load_files WHERE deleted_at IS NOT NULL",
}

// List returns soft-deleted rows, optionally narrowed to one resource kind,
// newest deletions first.
func (r *RecycleRepository) List(ctx context.Context, resource models.RecycleResource, page, pageSize int) ([]models.RecycleItem, int, error) {
	var selects []string
	if resource != "" {
		sel, ok := recycleSelects[resource]
		if !ok {
			return nil, 0, fmt.Errorf("unknown recycle resource %q", resource)
		}
		selects = []string{sel}
	} else {
		for _, res := range []models.RecycleResource{
			models.RecycleResourceCoordination,
			models.RecycleResourceCourse,
			models.RecycleResourceSubject,
			models.RecycleResourceProfessor,
			models.RecycleResourceLoadFile,
		} {
			selects = append(selects, recycleSelects[res])
		}
	}
	base := "(" + strings.Join(selects, " UNION ALL ") + ") AS bin"

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT resource, id, label, deleted_at FROM %s ORDER BY deleted_at DESC LIMIT %d OFFSET %d", base, pageSize, offset)
	var items []models.RecycleItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, 0, fmt.Errorf("list recycle bin: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("count recycle bin: %w", err)
	}

	return items, total, nil
}
