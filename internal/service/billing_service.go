package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/soe-platform/workload-api/internal/billing"
	"github.com/soe-platform/workload-api/internal/dto"
	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/schedule"
	"github.com/soe-platform/workload-api/pkg/config"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
)

type billingRecordSource interface {
	FindFileByID(ctx context.Context, id string) (*models.LoadFile, error)
	ListRecords(ctx context.Context, fileID string, section string) ([]models.ClassRecordDetail, error)
}

type billingTermSource interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	ListHolidays(ctx context.Context, termID string) ([]models.TermHoliday, error)
}

type rateResolver interface {
	ResolveAll(ctx context.Context, at time.Time) (map[models.LevelCode]decimal.Decimal, error)
}

type billingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// BillingService derives the billing reports of a load file: schedule
// blocks, payment summary, monthly budget and the combined report. All four
// share one deterministic block ordering so rows line up across sections.
type BillingService struct {
	records billingRecordSource
	terms   billingTermSource
	rates   rateResolver
	cache   billingCache
	config  config.BillingConfig
	logger  *zap.Logger
}

// NewBillingService creates a new billing service instance.
func NewBillingService(records billingRecordSource, terms billingTermSource, rates rateResolver, cache billingCache, cfg config.BillingConfig, logger *zap.Logger) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		records: records,
		terms:   terms,
		rates:   rates,
		cache:   cache,
		config:  cfg,
		logger:  logger,
	}
}

// billingSnapshot is one consistent read of a load file: its grouped records
// in canonical block order plus the term calendar and rates the reports
// price against.
type billingSnapshot struct {
	file     *models.LoadFile
	term     *models.Term
	holidays []time.Time
	keys     []billing.BlockKey
	groups   map[billing.BlockKey][]models.ClassRecordDetail
	rates    map[models.LevelCode]decimal.Decimal
}

func (s *BillingService) snapshot(ctx context.Context, fileID string) (*billingSnapshot, error) {
	file, err := s.records.FindFileByID(ctx, fileID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "archivo de carga no encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}

	term, err := s.terms.FindByID(ctx, file.TermID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	holidays, err := s.terms.ListHolidays(ctx, term.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	holidayDates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		holidayDates = append(holidayDates, h.Date)
	}

	rates, err := s.rates.ResolveAll(ctx, term.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve payment rates")
	}

	records, err := s.records.ListRecords(ctx, file.ID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class records")
	}

	groups := billing.GroupRecords(records)
	return &billingSnapshot{
		file:     file,
		term:     term,
		holidays: holidayDates,
		keys:     billing.SortedKeys(groups),
		groups:   groups,
		rates:    rates,
	}, nil
}

// leadRecord returns the member that speaks for the block: records sorted by
// subject code then section, first one wins.
func (snap *billingSnapshot) leadRecord(key billing.BlockKey) models.ClassRecordDetail {
	return billing.SortMembers(snap.groups[key])[0]
}

func (snap *billingSnapshot) hourlyRateFor(key billing.BlockKey) (models.LevelCode, decimal.Decimal) {
	level := billing.LevelFor(snap.leadRecord(key))
	return level, snap.rates[level]
}

func blockEntryFor(key billing.BlockKey) dto.BlockEntry {
	return dto.BlockEntry{
		ClassDays:     key.ClassDays,
		ClassSchedule: key.ClassSchedule,
		ClassDuration: key.DurationMinutes,
	}
}

func ratesByLevel(rates map[models.LevelCode]decimal.Decimal) dto.PaymentRatesByLevel {
	return dto.PaymentRatesByLevel{
		Grado:     rates[models.LevelGrado].InexactFloat64(),
		Maestria1: rates[models.LevelMasters1].InexactFloat64(),
		Maestria2: rates[models.LevelMasters2].InexactFloat64(),
		Doctor:    rates[models.LevelDoctor].InexactFloat64(),
		Bilingue:  rates[models.LevelBilingual].InexactFloat64(),
	}
}

func buildScheduleBlocks(snap *billingSnapshot) dto.ScheduleBlocksResponse {
	entries := make([]dto.ScheduleBlockEntry, 0, len(snap.keys))
	for _, key := range snap.keys {
		members := billing.SortMembers(snap.groups[key])
		subjects := make([]dto.BlockSubject, 0, len(members))
		for _, m := range members {
			subjects = append(subjects, dto.BlockSubject{
				SubjectCode: m.SubjectCode,
				SubjectName: m.SubjectName,
				Section:     m.Section,
				Professor:   m.ProfessorName,
			})
		}
		entries = append(entries, dto.ScheduleBlockEntry{
			BlockEntry: blockEntryFor(key),
			Subjects:   subjects,
		})
	}
	return dto.ScheduleBlocksResponse{Data: entries, Total: len(entries)}
}

func buildPaymentSummary(snap *billingSnapshot) dto.PaymentSummaryResponse {
	rateTable := ratesByLevel(snap.rates)
	entries := make([]dto.PaymentSummaryEntry, 0, len(snap.keys))
	for _, key := range snap.keys {
		level, rate := snap.hourlyRateFor(key)
		entries = append(entries, dto.PaymentSummaryEntry{
			BlockEntry:          blockEntryFor(key),
			AcademicLevel:       string(level),
			HourlyRate:          rate.InexactFloat64(),
			PaymentRatesByLevel: rateTable,
		})
	}
	return dto.PaymentSummaryResponse{Data: entries, Total: len(entries)}
}

func buildMonthlyBudget(snap *billingSnapshot) (dto.MonthlyBudgetResponse, error) {
	entries := make([]dto.MonthlyBudgetEntry, 0, len(snap.keys))
	for _, key := range snap.keys {
		days, err := schedule.ParseClassDays(key.ClassDays)
		if err != nil {
			return dto.MonthlyBudgetResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored class days label is not parseable")
		}
		_, rate := snap.hourlyRateFor(key)

		budget := billing.BudgetForTerm(snap.term.StartDate, snap.term.EndDate, snap.holidays, days, key.DurationMinutes, rate)
		months := make([]dto.BudgetMonth, 0, len(budget))
		for _, m := range budget {
			months = append(months, dto.BudgetMonth{
				Year:            m.Year,
				Month:           int(m.Month),
				MonthName:       billing.MonthName(m.Month),
				Sessions:        m.Sessions,
				RealTimeMinutes: m.RealTimeMinutes,
				TotalClassHours: m.TotalClassHours.Round(2).InexactFloat64(),
				TotalDollars:    m.TotalDollars.Round(2).InexactFloat64(),
			})
		}
		entries = append(entries, dto.MonthlyBudgetEntry{
			BlockEntry: blockEntryFor(key),
			Months:     months,
		})
	}
	return dto.MonthlyBudgetResponse{Data: entries, Total: len(entries)}, nil
}

// ScheduleBlocks returns the grouped schedule blocks of a load file.
func (s *BillingService) ScheduleBlocks(ctx context.Context, fileID string) (*dto.ScheduleBlocksResponse, error) {
	var cached dto.ScheduleBlocksResponse
	if s.fromCache(ctx, s.cacheKey(fileID, "schedule-blocks"), &cached) {
		return &cached, nil
	}

	snap, err := s.snapshot(ctx, fileID)
	if err != nil {
		return nil, err
	}
	resp := buildScheduleBlocks(snap)
	s.storeCache(ctx, s.cacheKey(fileID, "schedule-blocks"), resp)
	return &resp, nil
}

// PaymentSummary returns per-block levels, hourly rates and the rate table.
func (s *BillingService) PaymentSummary(ctx context.Context, fileID string) (*dto.PaymentSummaryResponse, error) {
	var cached dto.PaymentSummaryResponse
	if s.fromCache(ctx, s.cacheKey(fileID, "payment-summary"), &cached) {
		return &cached, nil
	}

	snap, err := s.snapshot(ctx, fileID)
	if err != nil {
		return nil, err
	}
	resp := buildPaymentSummary(snap)
	s.storeCache(ctx, s.cacheKey(fileID, "payment-summary"), resp)
	return &resp, nil
}

// MonthlyBudget returns each block's month-by-month session and cost
// timeline across the whole term span.
func (s *BillingService) MonthlyBudget(ctx context.Context, fileID string) (*dto.MonthlyBudgetResponse, error) {
	var cached dto.MonthlyBudgetResponse
	if s.fromCache(ctx, s.cacheKey(fileID, "monthly-budget"), &cached) {
		return &cached, nil
	}

	snap, err := s.snapshot(ctx, fileID)
	if err != nil {
		return nil, err
	}
	resp, err := buildMonthlyBudget(snap)
	if err != nil {
		return nil, err
	}
	s.storeCache(ctx, s.cacheKey(fileID, "monthly-budget"), resp)
	return &resp, nil
}

// Report returns all three sections built from one snapshot, so every
// section has the same length and block ordering.
func (s *BillingService) Report(ctx context.Context, fileID string) (*dto.BillingReportResponse, error) {
	var cached dto.BillingReportResponse
	if s.fromCache(ctx, s.cacheKey(fileID, "report"), &cached) {
		return &cached, nil
	}

	snap, err := s.snapshot(ctx, fileID)
	if err != nil {
		return nil, err
	}

	budget, err := buildMonthlyBudget(snap)
	if err != nil {
		return nil, err
	}
	resp := dto.BillingReportResponse{
		ScheduleBlocks: buildScheduleBlocks(snap),
		PaymentSummary: buildPaymentSummary(snap),
		MonthlyBudget:  budget,
	}
	s.storeCache(ctx, s.cacheKey(fileID, "report"), resp)
	return &resp, nil
}

func (s *BillingService) cacheKey(fileID, section string) string {
	return fmt.Sprintf("billing:%s:%s", fileID, section)
}

// fromCache loads a cached report. Any cache failure degrades to
// recomputation, never to a request failure.
func (s *BillingService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if !s.config.CacheEnabled || s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("billing cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *BillingService) storeCache(ctx context.Context, key string, value interface{}) {
	if !s.config.CacheEnabled || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.Warn("billing cache write failed", zap.String("key", key), zap.Error(err))
	}
}
