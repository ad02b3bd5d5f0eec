package models

import "time"

// RuntimeMetrics is the aggregated snapshot served to administrators. It is
// assembled from in-process counters, not from the Prometheus registry.
type RuntimeMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	FilesIngested            uint64    `json:"files_ingested"`
	RecordsIngested          uint64    `json:"records_ingested"`
	BillingReports           uint64    `json:"billing_reports"`
	ExportJobsFinished       uint64    `json:"export_jobs_finished"`
	ExportJobsFailed         uint64    `json:"export_jobs_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
