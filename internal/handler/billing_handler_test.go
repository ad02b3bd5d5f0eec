package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/config"
)

type billingFileStub struct {
	file    *models.LoadFile
	records []models.ClassRecordDetail
}

func (s *billingFileStub) FindFileByID(ctx context.Context, id string) (*models.LoadFile, error) {
	if s.file == nil || s.file.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.file, nil
}

func (s *billingFileStub) ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error) {
	return s.records, nil
}

type billingCalendarStub struct {
	term *models.Term
}

func (s *billingCalendarStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.term == nil || s.term.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.term, nil
}

func (s *billingCalendarStub) ListHolidays(ctx context.Context, termID string) ([]models.TermHoliday, error) {
	return nil, nil
}

type billingRatesStub struct{}

func (billingRatesStub) ResolveAll(ctx context.Context, at time.Time) (map[models.LevelCode]decimal.Decimal, error) {
	return map[models.LevelCode]decimal.Decimal{
		models.LevelGrado:     decimal.RequireFromString("8.50"),
		models.LevelMasters1:  decimal.RequireFromString("10.00"),
		models.LevelMasters2:  decimal.RequireFromString("12.00"),
		models.LevelDoctor:    decimal.RequireFromString("15.25"),
		models.LevelBilingual: decimal.RequireFromString("22.50"),
	}, nil
}

func billingRecord(subject, section, days, start, end string, duration int, professor string) models.ClassRecordDetail {
	return models.ClassRecordDetail{
		ClassRecord: models.ClassRecord{
			SubjectCode:     subject,
			SubjectName:     subject + " name",
			Section:         section,
			ClassDays:       days,
			StartTime:       start,
			EndTime:         end,
			DurationMinutes: duration,
		},
		ProfessorName: professor,
	}
}

func newBillingTestHandler(records *billingFileStub, metrics *service.MetricsService) *BillingHandler {
	terms := &billingCalendarStub{term: &models.Term{
		ID:        "term-1",
		StartDate: time.Date(2025, time.January, 21, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.June, 13, 0, 0, 0, 0, time.UTC),
	}}
	svc := service.NewBillingService(records, terms, billingRatesStub{}, nil, config.BillingConfig{}, zap.NewNop())
	return NewBillingHandler(svc, metrics)
}

func billingGet(t *testing.T, h gin.HandlerFunc, fileID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: fileID}}
	h(c)
	return w
}

func TestBillingHandlerScheduleBlocksPinnedShape(t *testing.T) {
	records := &billingFileStub{
		file: &models.LoadFile{ID: "file-1", TermID: "term-1"},
		records: []models.ClassRecordDetail{
			billingRecord("MAT101", "A", "Lu-Ma-Mi", "08:00", "09:30", 90, "Ana"),
			billingRecord("MAT102", "B", "Lu-Ma-Mi", "08:00", "09:30", 90, "Beatriz"),
			billingRecord("QUI301", "A", "Ju", "18:00", "20:00", 120, "Carlos"),
		},
	}
	h := newBillingTestHandler(records, nil)

	w := billingGet(t, h.ScheduleBlocks, "file-1")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	// The payload is the report itself, not the standard envelope.
	assert.Contains(t, body, "data")
	assert.Contains(t, body, "total")
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "pagination")

	var total int
	require.NoError(t, json.Unmarshal(body["total"], &total))
	assert.Equal(t, 2, total)

	var entries []dto.ScheduleBlockEntry
	require.NoError(t, json.Unmarshal(body["data"], &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Ju", entries[0].ClassDays)
	assert.Equal(t, "Lu-Ma-Mi", entries[1].ClassDays)
	require.Len(t, entries[1].Subjects, 2)
	assert.Equal(t, "MAT101", entries[1].Subjects[0].SubjectCode)
}

func TestBillingHandlerPaymentSummaryPinnedShape(t *testing.T) {
	records := &billingFileStub{
		file: &models.LoadFile{ID: "file-1", TermID: "term-1"},
		records: []models.ClassRecordDetail{
			billingRecord("MAT101", "A", "Lu-Mi", "08:00", "09:30", 90, "Ana"),
		},
	}
	h := newBillingTestHandler(records, nil)

	w := billingGet(t, h.PaymentSummary, "file-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.PaymentSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "GDO", resp.Data[0].AcademicLevel)
	assert.InDelta(t, 8.50, resp.Data[0].HourlyRate, 0.0001)
	assert.InDelta(t, 22.50, resp.Data[0].PaymentRatesByLevel.Bilingue, 0.0001)
}

func TestBillingHandlerReportSectionsAligned(t *testing.T) {
	records := &billingFileStub{
		file: &models.LoadFile{ID: "file-1", TermID: "term-1"},
		records: []models.ClassRecordDetail{
			billingRecord("MAT101", "A", "Lu-Ma-Mi", "08:00", "09:30", 90, "Ana"),
			billingRecord("QUI301", "A", "Ju", "18:00", "20:00", 120, "Carlos"),
			billingRecord("BIO110", "C", "Vi", "07:00", "08:00", 60, "Diana"),
		},
	}
	h := newBillingTestHandler(records, nil)

	w := billingGet(t, h.Report, "file-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.BillingReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, resp.ScheduleBlocks.Total, resp.PaymentSummary.Total)
	require.Equal(t, resp.ScheduleBlocks.Total, resp.MonthlyBudget.Total)
	for i := range resp.ScheduleBlocks.Data {
		assert.Equal(t, resp.ScheduleBlocks.Data[i].ClassDays, resp.PaymentSummary.Data[i].ClassDays)
		assert.Equal(t, resp.ScheduleBlocks.Data[i].ClassDays, resp.MonthlyBudget.Data[i].ClassDays)
	}
}

func TestBillingHandlerMonthlyBudgetPinnedShape(t *testing.T) {
	records := &billingFileStub{
		file: &models.LoadFile{ID: "file-1", TermID: "term-1"},
		records: []models.ClassRecordDetail{
			billingRecord("MAT101", "A", "Lu-Mi", "08:00", "09:30", 90, "Ana"),
		},
	}
	h := newBillingTestHandler(records, nil)

	w := billingGet(t, h.MonthlyBudget, "file-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.MonthlyBudgetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	// Term runs January through June: one entry per month.
	require.Len(t, resp.Data[0].Months, 6)
	assert.Equal(t, "Enero", resp.Data[0].Months[0].MonthName)
	assert.Equal(t, "Junio", resp.Data[0].Months[5].MonthName)
}

func TestBillingHandlerUnknownFileReturnsEnvelopeError(t *testing.T) {
	h := newBillingTestHandler(&billingFileStub{}, nil)

	w := billingGet(t, h.ScheduleBlocks, "missing")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "error")
	assert.NotContains(t, body, "data")
	assert.Contains(t, string(body["error"]), "no encontrado")
}

func TestBillingHandlerCountsReportRequests(t *testing.T) {
	records := &billingFileStub{
		file: &models.LoadFile{ID: "file-1", TermID: "term-1"},
		records: []models.ClassRecordDetail{
			billingRecord("MAT101", "A", "Lu-Mi", "08:00", "09:30", 90, "Ana"),
		},
	}
	metrics := service.NewMetricsService()
	h := newBillingTestHandler(records, metrics)

	billingGet(t, h.PaymentSummary, "file-1")
	billingGet(t, h.Report, "file-1")

	assert.Equal(t, uint64(2), metrics.Snapshot().BillingReports)
}
