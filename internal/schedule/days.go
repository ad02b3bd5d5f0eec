// Package schedule normalizes the day-group and time-range notation used by
// academic-load files: Monday-first weekday indices, fixed Spanish day
// abbreviations, and HH:MM time ranges with a single bounded overnight rule.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Weekday indexes days Monday-first: 0=Monday .. 6=Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var abbreviations = [7]string{"Lu", "Ma", "Mi", "Ju", "Vi", "Sá", "Do"}

var abbreviationIndex = map[string]Weekday{
	"Lu": Monday,
	"Ma": Tuesday,
	"Mi": Wednesday,
	"Ju": Thursday,
	"Vi": Friday,
	"Sá": Saturday,
	"Do": Sunday,
}

// FromTime converts the standard library's Sunday-first weekday to the
// Monday-first index used across load files and billing.
func FromTime(d time.Weekday) Weekday {
	return Weekday((int(d) + 6) % 7)
}

// Valid reports whether the index is inside [Monday, Sunday].
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Abbrev returns the fixed Spanish abbreviation for the day.
func (d Weekday) Abbrev() string {
	if !d.Valid() {
		return ""
	}
	return abbreviations[d]
}

// ParseClassDays maps a day-group label such as "Lu-Ma-Mi" to its weekday
// set. Tokens are literal: "Lu-Vi" names Monday and Friday, never the span
// between them. The result is ascending and deduplicated.
func ParseClassDays(label string) ([]Weekday, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return nil, fmt.Errorf("empty day group")
	}

	seen := make(map[Weekday]struct{}, 7)
	days := make([]Weekday, 0, 7)
	for _, token := range strings.Split(trimmed, "-") {
		token = strings.TrimSpace(token)
		day, ok := abbreviationIndex[token]
		if !ok {
			return nil, fmt.Errorf("unknown day abbreviation %q", token)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

// FormatClassDays renders a weekday set as its canonical label: the member
// abbreviations joined by "-" in ascending order. A single day renders
// alone. FormatClassDays and ParseClassDays are mutual inverses, so labels
// survive a parse/format round trip unchanged.
func FormatClassDays(days []Weekday) string {
	if len(days) == 0 {
		return ""
	}

	unique := make([]Weekday, 0, len(days))
	seen := make(map[Weekday]struct{}, len(days))
	for _, d := range days {
		if !d.Valid() {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	parts := make([]string, len(unique))
	for i, d := range unique {
		parts[i] = d.Abbrev()
	}
	return strings.Join(parts, "-")
}
