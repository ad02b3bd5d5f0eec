// Package billing holds the pure aggregation core behind the billing
// reports: class-day counting against a term calendar, schedule-block
// grouping, academic-level resolution and monthly budget math. Everything
// here is deterministic and free of I/O, so handlers may call it
// concurrently without coordination.
package billing

import (
	"time"

	"github.com/soe-platform/workload-api/internal/schedule"
)

// ClassDays enumerates the dates within one calendar month on which a
// recurring block meets: dates clamped to the inclusive [termStart, termEnd]
// range, falling on one of the target weekdays, and not listed as a holiday.
// A month that does not overlap the term yields (0, nil) rather than an
// error. Dates are returned in ascending order.
func ClassDays(termStart, termEnd time.Time, holidays []time.Time, weekdays []schedule.Weekday, year int, month time.Month) (int, []time.Time) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	start := midnight(termStart)
	if start.Before(monthStart) {
		start = monthStart
	}
	stop := midnight(termEnd).AddDate(0, 0, 1)
	if stop.After(monthEnd) {
		stop = monthEnd
	}
	if !start.Before(stop) {
		return 0, nil
	}

	wanted := make(map[schedule.Weekday]struct{}, len(weekdays))
	for _, d := range weekdays {
		wanted[d] = struct{}{}
	}
	skip := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		skip[dateKey(h)] = struct{}{}
	}

	var dates []time.Time
	for d := start; d.Before(stop); d = d.AddDate(0, 0, 1) {
		if _, ok := wanted[schedule.FromTime(d.Weekday())]; !ok {
			continue
		}
		if _, excluded := skip[dateKey(d)]; excluded {
			continue
		}
		dates = append(dates, d)
	}
	return len(dates), dates
}

// MonthsOf enumerates the first day of every month the term span touches,
// in chronological order.
func MonthsOf(termStart, termEnd time.Time) []time.Time {
	start := midnight(termStart)
	end := midnight(termEnd)
	if end.Before(start) {
		return nil
	}

	var months []time.Time
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

var monthNames = [13]string{
	"",
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name used by the billing reports.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m]
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
