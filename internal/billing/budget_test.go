package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/schedule"
)

func TestBudgetForMonthMath(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	weekdays := []schedule.Weekday{schedule.Monday, schedule.Wednesday}
	rate := decimal.RequireFromString("10.50")

	entry := BudgetForMonth(termStart, termEnd, nil, weekdays, 90, rate, 2025, time.January)
	require.Equal(t, 3, entry.Sessions)
	require.Equal(t, 270, entry.RealTimeMinutes)
	require.True(t, entry.TotalClassHours.Equal(decimal.RequireFromString("4.5")), "hours = %s", entry.TotalClassHours)
	require.True(t, entry.TotalDollars.Equal(decimal.RequireFromString("47.25")), "dollars = %s", entry.TotalDollars)
}

func TestBudgetForMonthZeroSessionsStillEmitted(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	rate := decimal.RequireFromString("12")

	entry := BudgetForMonth(termStart, termEnd, nil, []schedule.Weekday{schedule.Monday}, 90, rate, 2025, time.December)
	require.Equal(t, 2025, entry.Year)
	require.Equal(t, time.December, entry.Month)
	require.Zero(t, entry.Sessions)
	require.Zero(t, entry.RealTimeMinutes)
	require.True(t, entry.TotalClassHours.IsZero())
	require.True(t, entry.TotalDollars.IsZero())
}

func TestBudgetForMonthRespectsHolidays(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	holidays := []time.Time{date(2025, time.January, 27)}
	rate := decimal.RequireFromString("10")

	entry := BudgetForMonth(termStart, termEnd, holidays, []schedule.Weekday{schedule.Monday, schedule.Wednesday}, 60, rate, 2025, time.January)
	require.Equal(t, 2, entry.Sessions)
	require.Equal(t, 120, entry.RealTimeMinutes)
	require.True(t, entry.TotalDollars.Equal(decimal.RequireFromString("20")))
}

func TestBudgetForTermCoversEveryMonth(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	rate := decimal.RequireFromString("10.50")

	entries := BudgetForTerm(termStart, termEnd, nil, []schedule.Weekday{schedule.Monday, schedule.Wednesday}, 90, rate)
	require.Len(t, entries, 6)
	require.Equal(t, time.January, entries[0].Month)
	require.Equal(t, time.June, entries[5].Month)
	for i, entry := range entries {
		require.Equal(t, 2025, entry.Year, "entry %d", i)
		require.Equal(t, entry.Sessions*90, entry.RealTimeMinutes)
	}
	// January pinned by the calendar scenario.
	require.Equal(t, 3, entries[0].Sessions)
}

func TestBudgetKeepsFractionalHoursUnrounded(t *testing.T) {
	termStart := date(2025, time.March, 3) // a Monday
	termEnd := date(2025, time.March, 3)
	rate := decimal.RequireFromString("30")

	// One 50 minute session: 5/6 of an hour, 25 dollars exactly.
	entry := BudgetForMonth(termStart, termEnd, nil, []schedule.Weekday{schedule.Monday}, 50, rate, 2025, time.March)
	require.Equal(t, 1, entry.Sessions)
	require.Equal(t, 50, entry.RealTimeMinutes)
	require.True(t, entry.TotalDollars.Equal(decimal.RequireFromString("25")), "dollars = %s", entry.TotalDollars)
}
