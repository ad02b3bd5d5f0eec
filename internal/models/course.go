package models

import "time"

// Course represents a degree program offered by the school.
type Course struct {
	ID             string     `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	Name           string     `db:"name" json:"name"`
	CoordinationID *string    `db:"coordination_id" json:"coordination_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search         string
	CoordinationID string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
