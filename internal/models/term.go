package models

import "time"

// Term models an academic period with an inclusive date range and its own
// holiday calendar.
type Term struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TermHoliday is one non-teaching date inside a term.
type TermHoliday struct {
	ID     string    `db:"id" json:"id"`
	TermID string    `db:"term_id" json:"term_id"`
	Date   time.Time `db:"date" json:"date"`
	Label  string    `db:"label" json:"label"`
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	AcademicYear string
	IsActive     *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
