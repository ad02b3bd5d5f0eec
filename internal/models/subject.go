package models

import "time"

// Subject represents a subject (materia) in the academic catalog.
type Subject struct {
	ID             string     `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	Name           string     `db:"name" json:"name"`
	Credits        int        `db:"credits" json:"credits"`
	Semester       int        `db:"semester" json:"semester"`
	CourseID       *string    `db:"course_id" json:"course_id,omitempty"`
	CoordinationID *string    `db:"coordination_id" json:"coordination_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// SubjectFilter captures filtering options for listing subjects.
type SubjectFilter struct {
	Search         string
	CourseID       string
	CoordinationID string
	Semester       *int
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
