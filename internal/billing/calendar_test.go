package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassDaysJanuaryScenario(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	holidays := []time.Time{date(2025, time.January, 1)}
	weekdays := []schedule.Weekday{schedule.Monday, schedule.Wednesday}

	count, dates := ClassDays(termStart, termEnd, holidays, weekdays, 2025, time.January)
	require.Equal(t, 3, count)
	require.Equal(t, []time.Time{
		date(2025, time.January, 22),
		date(2025, time.January, 27),
		date(2025, time.January, 29),
	}, dates)
}

func TestClassDaysExcludesHolidayOnMatchedWeekday(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	holidays := []time.Time{date(2025, time.January, 27)}
	weekdays := []schedule.Weekday{schedule.Monday, schedule.Wednesday}

	count, dates := ClassDays(termStart, termEnd, holidays, weekdays, 2025, time.January)
	require.Equal(t, 2, count)
	require.Equal(t, []time.Time{
		date(2025, time.January, 22),
		date(2025, time.January, 29),
	}, dates)
}

func TestClassDaysMonthOutsideTerm(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)

	count, dates := ClassDays(termStart, termEnd, nil, []schedule.Weekday{schedule.Monday}, 2025, time.August)
	require.Zero(t, count)
	require.Empty(t, dates)

	count, dates = ClassDays(termStart, termEnd, nil, []schedule.Weekday{schedule.Monday}, 2024, time.December)
	require.Zero(t, count)
	require.Empty(t, dates)
}

func TestClassDaysSingleDayTerm(t *testing.T) {
	day := date(2025, time.March, 10) // a Monday

	count, dates := ClassDays(day, day, nil, []schedule.Weekday{schedule.Monday}, 2025, time.March)
	require.Equal(t, 1, count)
	require.Equal(t, []time.Time{day}, dates)

	count, dates = ClassDays(day, day, nil, []schedule.Weekday{schedule.Tuesday}, 2025, time.March)
	require.Zero(t, count)
	require.Empty(t, dates)
}

func TestClassDaysHandlesWeekendIndices(t *testing.T) {
	termStart := date(2025, time.February, 1)
	termEnd := date(2025, time.February, 28)

	count, dates := ClassDays(termStart, termEnd, nil, []schedule.Weekday{schedule.Saturday, schedule.Sunday}, 2025, time.February)
	require.Equal(t, 8, count)
	for _, d := range dates {
		wd := schedule.FromTime(d.Weekday())
		require.True(t, wd == schedule.Saturday || wd == schedule.Sunday)
	}
}

func TestClassDaysProperties(t *testing.T) {
	termStart := date(2025, time.January, 21)
	termEnd := date(2025, time.June, 13)
	holidays := []time.Time{date(2025, time.March, 24), date(2025, time.April, 2)}
	weekdays := []schedule.Weekday{schedule.Monday, schedule.Wednesday, schedule.Friday}

	for m := time.January; m <= time.December; m++ {
		count, dates := ClassDays(termStart, termEnd, holidays, weekdays, 2025, m)
		require.Len(t, dates, count)
		for _, d := range dates {
			require.False(t, d.Before(termStart), "%s before term start", d)
			require.False(t, d.After(termEnd), "%s after term end", d)
			require.Equal(t, m, d.Month())
			require.Contains(t, weekdays, schedule.FromTime(d.Weekday()))
			for _, h := range holidays {
				require.False(t, d.Equal(h), "holiday %s included", h)
			}
		}
	}
}

func TestMonthsOfSpansTerm(t *testing.T) {
	months := MonthsOf(date(2025, time.January, 21), date(2025, time.June, 13))
	require.Len(t, months, 6)
	require.Equal(t, date(2025, time.January, 1), months[0])
	require.Equal(t, date(2025, time.June, 1), months[5])

	require.Empty(t, MonthsOf(date(2025, time.June, 1), date(2025, time.January, 1)))

	single := MonthsOf(date(2025, time.March, 5), date(2025, time.March, 20))
	require.Len(t, single, 1)
}

func TestMonthsOfCrossesYearBoundary(t *testing.T) {
	months := MonthsOf(date(2025, time.November, 10), date(2026, time.February, 5))
	require.Len(t, months, 4)
	require.Equal(t, date(2025, time.November, 1), months[0])
	require.Equal(t, date(2026, time.February, 1), months[3])
}

func TestMonthName(t *testing.T) {
	require.Equal(t, "Enero", MonthName(time.January))
	require.Equal(t, "Diciembre", MonthName(time.December))
	require.Equal(t, "", MonthName(time.Month(13)))
}
