package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/soe-platform/workload-api/internal/models"
)

// RateRepository manages persistence for the hourly payment rate history.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository constructs a RateRepository.
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

const rateColumns = "id, level, hourly_rate, effective_from, effective_to, created_at, updated_at"

// List returns rate history rows matching filters along with total count.
func (r *RateRepository) List(ctx context.Context, filter models.PaymentRateFilter) ([]models.PaymentRate, int, error) {
	base := "FROM payment_rates WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Level != nil {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, *filter.Level)
	}
	if filter.At != nil {
		conditions = append(conditions, fmt.Sprintf("effective_from <= $%d AND (effective_to IS NULL OR effective_to >= $%d)", len(args)+1, len(args)+1))
		args = append(args, *filter.At)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "effective_from"
	}
	allowedSorts := map[string]string{
		"level":          "level",
		"effective_from": "effective_from",
		"created_at":     "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "effective_from"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", rateColumns, base, column, order, size, offset)
	var rates []models.PaymentRate
	if err := r.db.SelectContext(ctx, &rates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payment rates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payment rates: %w", err)
	}

	return rates, total, nil
}

// FindByID fetches a rate history row by ID.
func (r *RateRepository) FindByID(ctx context.Context, id string) (*models.PaymentRate, error) {
	query := fmt.Sprintf("SELECT %s FROM payment_rates WHERE id = $1", rateColumns)
	var rate models.PaymentRate
	if err := r.db.GetContext(ctx, &rate, query, id); err != nil {
		return nil, err
	}
	return &rate, nil
}

// HasOverlap reports whether a rate row for the level already covers any part
// of [from, to]. A nil "to" means the range is open ended.
func (r *RateRepository) HasOverlap(ctx context.Context, level models.LevelCode, from time.Time, to *time.Time, excludeID string) (bool, error) {
	query := `SELECT 1 FROM payment_rates WHERE level = $1
		AND effective_from <= COALESCE($3::timestamptz, 'infinity'::timestamptz)
		AND COALESCE(effective_to, 'infinity'::timestamptz) >= $2`
	args := []interface{}{level, from, to}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check rate overlap: %w", err)
	}
	return true, nil
}

// Create inserts a new rate history row.
func (r *RateRepository) Create(ctx context.Context, rate *models.PaymentRate) error {
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = now
	}
	rate.UpdatedAt = now

	const query = `INSERT INTO payment_rates (id, level, hourly_rate, effective_from, effective_to, created_at, updated_at)
		VALUES (:id, :level, :hourly_rate, :effective_from, :effective_to, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rate); err != nil {
		return fmt.Errorf("create payment rate: %w", err)
	}
	return nil
}

// Update modifies an existing rate history row.
func (r *RateRepository) Update(ctx context.Context, rate *models.PaymentRate) error {
	rate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payment_rates SET level = :level, hourly_rate = :hourly_rate, effective_from = :effective_from, effective_to = :effective_to, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rate); err != nil {
		return fmt.Errorf("update payment rate: %w", err)
	}
	return nil
}

// Delete permanently removes a rate history row.
func (r *RateRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM payment_rates WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete payment rate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ResolveAll returns the hourly rate effective at the given date for every
// level that has one.
func (r *RateRepository) ResolveAll(ctx context.Context, at time.Time) (map[models.LevelCode]decimal.Decimal, error) {
	const query = `SELECT level, hourly_rate FROM payment_rates
		WHERE effective_from <= $1 AND (effective_to IS NULL OR effective_to >= $1)`
	var rows []struct {
		Level      models.LevelCode `db:"level"`
		HourlyRate decimal.Decimal  `db:"hourly_rate"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, at); err != nil {
		return nil, fmt.Errorf("resolve payment rates: %w", err)
	}
	rates := make(map[models.LevelCode]decimal.Decimal, len(rows))
	for _, row := range rows {
		rates[row.Level] = row.HourlyRate
	}
	return rates, nil
}
