package models

import "time"

// RecycleResource names a soft-deletable resource kind.
type RecycleResource string

const (
	RecycleResourceCoordination RecycleResource = "coordinations"
	RecycleResourceCourse       RecycleResource = "courses"
	RecycleResourceSubject      RecycleResource = "subjects"
	RecycleResourceProfessor    RecycleResource = "professors"
	RecycleResourceLoadFile     RecycleResource = "load-files"
)

// Valid reports whether the resource kind participates in the recycle bin.
func (r RecycleResource) Valid() bool {
	switch r {
	case RecycleResourceCoordination, RecycleResourceCourse, RecycleResourceSubject,
		RecycleResourceProfessor, RecycleResourceLoadFile:
		return true
	}
	return false
}

// RecycleItem is one soft-deleted row awaiting restore or purge.
type RecycleItem struct {
	Resource  RecycleResource `db:"resource" json:"resource"`
	ID        string          `db:"id" json:"id"`
	Label     string          `db:"label" json:"label"`
	DeletedAt time.Time       `db:"deleted_at" json:"deleted_at"`
}
