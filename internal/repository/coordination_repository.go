package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soe-platform/workload-api/internal/models"
)

// CoordinationRepository manages persistence for coordinations.
type CoordinationRepository struct {
	db *sqlx.DB
}

// NewCoordinationRepository constructs a CoordinationRepository.
func NewCoordinationRepository(db *sqlx.DB) *CoordinationRepository {
	return &CoordinationRepository{db: db}
}

const coordinationColumns = "id, code, name, created_at, updated_at, deleted_at"

// List returns non-deleted coordinations matching filters along with total count.
func (r *CoordinationRepository) List(ctx context.Context, filter models.CoordinationFilter) ([]models.Coordination, int, error) {
	base := "FROM coordinations WHERE deleted_at IS NULL"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	allowedSorts := map[string]string{
		"code":       "code",
		"name":       "name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", coordinationColumns, base, column, order, size, offset)
	var coordinations []models.Coordination
	if err := r.db.SelectContext(ctx, &coordinations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list coordinations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count coordinations: %w", err)
	}

	return coordinations, total, nil
}

// FindByID fetches a non-deleted coordination by ID.
func (r *CoordinationRepository) FindByID(ctx context.Context, id string) (*models.Coordination, error) {
	query := fmt.Sprintf("SELECT %s FROM coordinations WHERE id = $1 AND deleted_at IS NULL", coordinationColumns)
	var coordination models.Coordination
	if err := r.db.GetContext(ctx, &coordination, query, id); err != nil {
		return nil, err
	}
	return &coordination, nil
}

// FindByCode fetches a non-deleted coordination by code.
func (r *CoordinationRepository) FindByCode(ctx context.Context, code string) (*models.Coordination, error) {
	query := fmt.Sprintf("SELECT %s FROM coordinations WHERE LOWER(code) = LOWER($1) AND deleted_at IS NULL", coordinationColumns)
	var coordination models.Coordination
	if err := r.db.GetContext(ctx, &coordination, query, code); err != nil {
		return nil, err
	}
	return &coordination, nil
}

// ExistsByCode checks if another non-deleted coordination uses the same code.
func (r *CoordinationRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM coordinations WHERE LOWER(code) = LOWER($1) AND deleted_at IS NULL"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check coordination code: %w", err)
	}
	return true, nil
}

// Create inserts a new coordination record.
func (r *CoordinationRepository) Create(ctx context.Context, coordination *models.Coordination) error {
	if coordination.ID == "" {
		coordination.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if coordination.CreatedAt.IsZero() {
		coordination.CreatedAt = now
	}
	coordination.UpdatedAt = now

	const query = `INSERT INTO coordinations (id, code, name, created_at, updated_at)
		VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, coordination); err != nil {
		return fmt.Errorf("create coordination: %w", err)
	}
	return nil
}

// Update modifies an existing coordination record.
func (r *CoordinationRepository) Update(ctx context.Context, coordination *models.Coordination) error {
	coordination.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coordinations SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, coordination); err != nil {
		return fmt.Errorf("update coordination: %w", err)
	}
	return nil
}

// SoftDelete moves a coordination into the recycle bin.
func (r *CoordinationRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE coordinations SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete coordination: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Restore clears the deletion mark on a soft-deleted coordination.
func (r *CoordinationRepository) Restore(ctx context.Context, id string) error {
	const query = `UPDATE coordinations SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("restore coordination: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Purge permanently removes a soft-deleted coordination.
func (r *CoordinationRepository) Purge(ctx context.Context, id string) error {
	const query = `DELETE FROM coordinations WHERE id = $1 AND deleted_at IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("purge coordination: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
