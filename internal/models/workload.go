package models

import "time"

// LoadFileStatus tracks the lifecycle of an ingested academic-load file.
type LoadFileStatus string

const (
	LoadFileStatusProcessed LoadFileStatus = "PROCESSED"
)

// LoadFile is the header row of one ingested academic-load file. Records
// hang off the file and become unreachable once the file is soft deleted.
type LoadFile struct {
	ID          string         `db:"id" json:"id"`
	Filename    string         `db:"filename" json:"filename"`
	TermID      string         `db:"term_id" json:"term_id"`
	UploadedBy  string         `db:"uploaded_by" json:"uploaded_by"`
	Status      LoadFileStatus `db:"status" json:"status"`
	RowCount    int            `db:"row_count" json:"row_count"`
	RecordCount int            `db:"record_count" json:"record_count"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
}

// LoadFileFilter captures filtering options for listing load files.
type LoadFileFilter struct {
	TermID    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassRecord is one validated row of an academic-load file. Immutable after
// ingestion: class_days, the time bounds and the derived labels are stored in
// canonical form so billing can re-derive the schedule block cheaply.
type ClassRecord struct {
	ID               string    `db:"id" json:"id"`
	LoadFileID       string    `db:"load_file_id" json:"load_file_id"`
	SubjectCode      string    `db:"subject_code" json:"subject_code"`
	SubjectName      string    `db:"subject_name" json:"subject_name"`
	Section          string    `db:"section" json:"section"`
	ClassDays        string    `db:"class_days" json:"class_days"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	DurationMinutes  int       `db:"duration_minutes" json:"duration_minutes"`
	ProfessorID      string    `db:"professor_id" json:"professor_id"`
	CoordinationCode string    `db:"coordination_code" json:"coordination_code"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// TimeRangeLabel renders the canonical "{start}-{end}" schedule label.
func (r ClassRecord) TimeRangeLabel() string {
	return r.StartTime + "-" + r.EndTime
}

// ClassRecordDetail joins a record with the qualifications of its professor,
// which the billing pipeline needs to resolve the pay tier.
type ClassRecordDetail struct {
	ClassRecord
	ProfessorName     string  `db:"professor_name" json:"professor_name"`
	ProfessorCategory *string `db:"professor_category" json:"professor_category,omitempty"`
	Bilingual         bool    `db:"bilingual" json:"bilingual"`
	DoctorateCount    int     `db:"doctorate_count" json:"doctorate_count"`
	MastersCount      int     `db:"masters_count" json:"masters_count"`
}
