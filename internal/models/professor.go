package models

import "time"

// Professor represents an instructor and the qualifications that drive the
// academic-level resolution used by billing.
type Professor struct {
	ID             string     `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	Email          string     `db:"email" json:"email"`
	FullName       string     `db:"full_name" json:"full_name"`
	Category       *string    `db:"category" json:"category,omitempty"`
	Bilingual      bool       `db:"bilingual" json:"bilingual"`
	DoctorateCount int        `db:"doctorate_count" json:"doctorate_count"`
	MastersCount   int        `db:"masters_count" json:"masters_count"`
	CoordinationID *string    `db:"coordination_id" json:"coordination_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ProfessorFilter captures filtering options for listing professors.
type ProfessorFilter struct {
	Search         string
	CoordinationID string
	Bilingual      *bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
