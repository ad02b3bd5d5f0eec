package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/soe-platform/workload-api/internal/schedule"
)

// MonthEntry is one schedule block's outcome for a single calendar month.
// Hours and dollars stay decimal until presentation; nothing rounds here.
type MonthEntry struct {
	Year            int
	Month           time.Month
	Sessions        int
	RealTimeMinutes int
	TotalClassHours decimal.Decimal
	TotalDollars    decimal.Decimal
}

var minutesPerHour = decimal.NewFromInt(60)

// BudgetForMonth computes one block's numbers for one month. A month with
// zero sessions yields a fully zeroed entry, never an omission, so callers
// can render a complete month-by-month timeline.
func BudgetForMonth(termStart, termEnd time.Time, holidays []time.Time, days []schedule.Weekday, durationMinutes int, hourlyRate decimal.Decimal, year int, month time.Month) MonthEntry {
	sessions, _ := ClassDays(termStart, termEnd, holidays, days, year, month)
	minutes := sessions * durationMinutes
	minutesDec := decimal.NewFromInt(int64(minutes))
	return MonthEntry{
		Year:            year,
		Month:           month,
		Sessions:        sessions,
		RealTimeMinutes: minutes,
		TotalClassHours: minutesDec.Div(minutesPerHour),
		// minutes*rate/60, dividing last
		TotalDollars: minutesDec.Mul(hourlyRate).Div(minutesPerHour),
	}
}

// BudgetForTerm emits one MonthEntry per month across the term's whole span,
// in chronological order.
func BudgetForTerm(termStart, termEnd time.Time, holidays []time.Time, days []schedule.Weekday, durationMinutes int, hourlyRate decimal.Decimal) []MonthEntry {
	months := MonthsOf(termStart, termEnd)
	entries := make([]MonthEntry, 0, len(months))
	for _, m := range months {
		entries = append(entries, BudgetForMonth(termStart, termEnd, holidays, days, durationMinutes, hourlyRate, m.Year(), m.Month()))
	}
	return entries
}
