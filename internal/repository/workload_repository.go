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

// WorkloadRepository manages persistence for academic-load files and the
// class records ingested from them.
type WorkloadRepository struct {
	db *sqlx.DB
}

// NewWorkloadRepository constructs a WorkloadRepository.
func NewWorkloadRepository(db *sqlx.DB) *WorkloadRepository {
	return &WorkloadRepository{db: db}
}

const loadFileColumns = "id, filename, term_id, uploaded_by, status, row_count, record_count, created_at, updated_at, deleted_at"

// ListFiles returns non-deleted load files matching filters along with total count.
func (r *WorkloadRepository) ListFiles(ctx context.Context, filter models.LoadFileFilter) ([]models.LoadFile, int, error) {
	base := "FROM load_files WHERE deleted_at IS NULL"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("LOWER(filename) LIKE $%d", len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"filename":   "filename",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", loadFileColumns, base, column, order, size, offset)
	var files []models.LoadFile
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list load files: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count load files: %w", err)
	}

	return files, total, nil
}

// FindFileByID fetches a non-deleted load file by ID.
func (r *WorkloadRepository) FindFileByID(ctx context.Context, id string) (*models.LoadFile, error) {
	query := fmt.Sprintf("SELECT %s FROM load_files WHERE id = $1 AND deleted_at IS NULL", loadFileColumns)
	var file models.LoadFile
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		return nil, err
	}
	return &file, nil
}

// CreateWithRecords stores a load file together with all of its class records
// in one transaction. Either everything lands or nothing does.
func (r *WorkloadRepository) CreateWithRecords(ctx context.Context, file *models.LoadFile, records []models.ClassRecord) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest load file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const fileInsert = `INSERT INTO load_files (id, filename, term_id, uploaded_by, status, row_count, record_count, created_at, updated_at)
		VALUES (:id, :filename, :term_id, :uploaded_by, :status, :row_count, :record_count, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, fileInsert, file); err != nil {
		return fmt.Errorf("insert load file: %w", err)
	}

	const recordInsert = `INSERT INTO class_records (id, load_file_id, subject_code, subject_name, section, class_days, start_time, end_time, duration_minutes, professor_id, coordination_code, created_at)
		VALUES (:id, :load_file_id, :subject_code, :subject_name, :section, :class_days, :start_time, :end_time, :duration_minutes, :professor_id, :coordination_code, :created_at)`
	for i := range records {
		payload := records[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.LoadFileID = file.ID
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, recordInsert, payload); err != nil {
			return fmt.Errorf("insert class record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest load file: %w", err)
	}
	return nil
}

// SoftDeleteFile moves a load file into the recycle bin. Its records become
// unreachable through list and billing queries until restored.
func (r *WorkloadRepository) SoftDeleteFile(ctx context.Context, id string) error {
	const query = `UPDATE load_files SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete load file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RestoreFile clears the deletion mark on a soft-deleted load file.
func (r *WorkloadRepository) RestoreFile(ctx context.Context, id string) error {
	const query = `UPDATE load_files SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("restore load file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PurgeFile permanently removes a soft-deleted load file and its records.
func (r *WorkloadRepository) PurgeFile(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purge load file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_records WHERE load_file_id = $1`, id); err != nil {
		return fmt.Errorf("purge class records: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM load_files WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("purge load file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit purge load file: %w", err)
	}
	return nil
}

// ListRecords returns a file's class records joined with professor
// qualifications, optionally narrowed to one section, ordered by subject
// code then section.
func (r *WorkloadRepository) ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error) {
	query := `SELECT cr.id, cr.load_file_id, cr.subject_code, cr.subject_name, cr.section, cr.class_days, cr.start_time, cr.end_time, cr.duration_minutes, cr.professor_id, cr.coordination_code, cr.created_at,
			p.full_name AS professor_name, p.category AS professor_category, p.bilingual, p.doctorate_count, p.masters_count
		FROM class_records cr
		JOIN professors p ON p.id = cr.professor_id
		WHERE cr.load_file_id = $1`
	args := []interface{}{fileID}
	if section != "" {
		query += " AND cr.section = $2"
		args = append(args, section)
	}
	query += " ORDER BY cr.subject_code ASC, cr.section ASC"

	var records []models.ClassRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list class records: %w", err)
	}
	return records, nil
}

// ListSections returns the distinct sections present in a file.
func (r *WorkloadRepository) ListSections(ctx context.Context, fileID string) ([]string, error) {
	const query = `SELECT DISTINCT section FROM class_records WHERE load_file_id = $1 ORDER BY section ASC`
	var sections []string
	if err := r.db.SelectContext(ctx, &sections, query, fileID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
