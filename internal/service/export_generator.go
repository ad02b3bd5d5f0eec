package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/pkg/export"
	"github.com/soe-platform/workload-api/pkg/storage"
)

type billingReportSource interface {
	MonthlyBudget(ctx context.Context, fileID string) (*dto.MonthlyBudgetResponse, error)
	PaymentSummary(ctx context.Context, fileID string) (*dto.PaymentSummaryResponse, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// GeneratorConfig tunes export generation behaviour.
type GeneratorConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportGenerator flattens billing reports into tabular datasets and
// persists the rendered files.
type ExportGenerator struct {
	billing billingReportSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     GeneratorConfig
}

// NewExportGenerator constructs an ExportGenerator.
func NewExportGenerator(billing billingReportSource, store fileStorage, signer *storage.SignedURLSigner, cfg GeneratorConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportGenerator{
		billing: billing,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (g *ExportGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := g.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = g.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = g.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := g.buildFilename(job)
	relPath, err := g.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := g.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(g.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/exports/%s/download?token=%s", prefix, job.ID, token)

	g.logger.Info("export generated",
		zap.String("job_id", job.ID),
		zap.String("path", relPath),
		zap.String("format", string(job.Params.Format)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (g *ExportGenerator) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return g.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (g *ExportGenerator) Open(relPath string) (*os.File, error) {
	return g.storage.Open(relPath)
}

// Delete removes a stored export file.
func (g *ExportGenerator) Delete(relPath string) error {
	return g.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL
// when ttl <= 0).
func (g *ExportGenerator) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = g.cfg.ResultTTL
	}
	return g.storage.CleanupOlderThan(ttl)
}

func (g *ExportGenerator) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	filePart := sanitizeFilename(job.Params.LoadFileID)
	ext := strings.ToLower(string(job.Params.Format))
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), filePart, timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (g *ExportGenerator) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeBillingBudget:
		return g.buildBudgetDataset(ctx, job.Params)
	case models.ExportTypeBillingSummary:
		return g.buildSummaryDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (g *ExportGenerator) buildBudgetDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	budget, err := g.billing.MonthlyBudget(ctx, params.LoadFileID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"Class Days", "Schedule", "Duration (min)", "Year", "Month", "Sessions", "Real Minutes", "Class Hours", "Total (USD)"}
	rows := make([]map[string]string, 0, len(budget.Data))
	for _, block := range budget.Data {
		for _, month := range block.Months {
			rows = append(rows, map[string]string{
				"Class Days":     block.ClassDays,
				"Schedule":       block.ClassSchedule,
				"Duration (min)": strconv.Itoa(block.ClassDuration),
				"Year":           strconv.Itoa(month.Year),
				"Month":          month.MonthName,
				"Sessions":       strconv.Itoa(month.Sessions),
				"Real Minutes":   strconv.Itoa(month.RealTimeMinutes),
				"Class Hours":    fmt.Sprintf("%.2f", month.TotalClassHours),
				"Total (USD)":    fmt.Sprintf("%.2f", month.TotalDollars),
			})
		}
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := fmt.Sprintf("Monthly Budget %s", params.LoadFileID)
	return dataset, title, nil
}

func (g *ExportGenerator) buildSummaryDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	summary, err := g.billing.PaymentSummary(ctx, params.LoadFileID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"Class Days", "Schedule", "Duration (min)", "Academic Level", "Hourly Rate (USD)"}
	rows := make([]map[string]string, 0, len(summary.Data))
	for _, block := range summary.Data {
		rows = append(rows, map[string]string{
			"Class Days":        block.ClassDays,
			"Schedule":          block.ClassSchedule,
			"Duration (min)":    strconv.Itoa(block.ClassDuration),
			"Academic Level":    block.AcademicLevel,
			"Hourly Rate (USD)": fmt.Sprintf("%.2f", block.HourlyRate),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := fmt.Sprintf("Payment Summary %s", params.LoadFileID)
	return dataset, title, nil
}
