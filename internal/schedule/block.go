package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

const (
	// DayStart and DayEnd bound the full-day sentinel range assigned to
	// source rows whose end time does not come after their start time.
	DayStart TimeOfDay = 0
	DayEnd   TimeOfDay = 23*60 + 59
)

// ParseTimeOfDay parses an "HH:MM" 24-hour clock string.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", raw)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// String renders the canonical zero-padded "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// NormalizeTimeRange applies the one wraparound rule ingestion accepts: a
// range whose end does not come after its start collapses to the full-day
// sentinel 00:00-23:59. Everything downstream only ever sees end > start.
func NormalizeTimeRange(start, end TimeOfDay) (TimeOfDay, TimeOfDay) {
	if end <= start {
		return DayStart, DayEnd
	}
	return start, end
}

// Block is one recurring class slot: a weekday set plus a time range.
type Block struct {
	Days  []Weekday
	Start TimeOfDay
	End   TimeOfDay
}

// NewBlock validates and normalizes the block invariants: a non-empty
// weekday set with every index in range, and an end strictly after the
// start. Overnight ranges must be normalized before construction.
func NewBlock(days []Weekday, start, end TimeOfDay) (Block, error) {
	if len(days) == 0 {
		return Block{}, fmt.Errorf("weekday set is empty")
	}
	for _, d := range days {
		if !d.Valid() {
			return Block{}, fmt.Errorf("weekday index %d out of range", int(d))
		}
	}
	if end <= start {
		return Block{}, fmt.Errorf("end time %s is not after start time %s", end, start)
	}

	unique := make([]Weekday, 0, len(days))
	seen := make(map[Weekday]struct{}, len(days))
	for _, d := range days {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return Block{Days: unique, Start: start, End: end}, nil
}

// DayLabel returns the canonical day-group label for the block.
func (b Block) DayLabel() string {
	return FormatClassDays(b.Days)
}

// TimeLabel renders the "{start}-{end}" schedule label.
func (b Block) TimeLabel() string {
	return b.Start.String() + "-" + b.End.String()
}

// DurationMinutes is the length of one session.
func (b Block) DurationMinutes() int {
	return int(b.End - b.Start)
}
