package dto

import "github.com/soe-platform/workload-api/internal/models"

// IngestResponse returns the stored file and its ingest counters.
type IngestResponse struct {
	File           models.LoadFile `json:"file"`
	RowCount       int             `json:"row_count"`
	RecordCount    int             `json:"record_count"`
	SubjectCount   int             `json:"subject_count"`
	ProfessorCount int             `json:"professor_count"`
}

// RowError pinpoints one rejected row of an uploaded load file.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
