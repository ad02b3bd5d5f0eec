package dto

import "github.com/soe-platform/workload-api/internal/models"

// ExportRequest captures POST /exports payloads.
type ExportRequest struct {
	Type       models.ExportType   `json:"type"`
	LoadFileID string              `json:"load_file_id"`
	Format     models.ExportFormat `json:"format"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
