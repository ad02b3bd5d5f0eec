package billing

import (
	"sort"

	"github.com/soe-platform/workload-api/internal/models"
)

// BlockKey identifies one schedule block: the (days, time range, duration)
// triple billing aggregates over. Equality is structural on the three
// derived labels, never on record identity.
type BlockKey struct {
	ClassDays       string
	ClassSchedule   string
	DurationMinutes int
}

// KeyFor derives the grouping key of a class record.
func KeyFor(r models.ClassRecord) BlockKey {
	return BlockKey{
		ClassDays:       r.ClassDays,
		ClassSchedule:   r.TimeRangeLabel(),
		DurationMinutes: r.DurationMinutes,
	}
}

// GroupRecords partitions records by schedule block. Every record lands in
// exactly one group and empty input yields an empty map. Map iteration order
// is unspecified; callers needing stable output sort via SortedKeys.
func GroupRecords(records []models.ClassRecordDetail) map[BlockKey][]models.ClassRecordDetail {
	groups := make(map[BlockKey][]models.ClassRecordDetail, len(records))
	for _, r := range records {
		key := KeyFor(r.ClassRecord)
		groups[key] = append(groups[key], r)
	}
	return groups
}

// SortedKeys orders block keys by day label, then schedule label, then
// duration, giving every report section the same deterministic row order.
func SortedKeys(groups map[BlockKey][]models.ClassRecordDetail) []BlockKey {
	keys := make([]BlockKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ClassDays != keys[j].ClassDays {
			return keys[i].ClassDays < keys[j].ClassDays
		}
		if keys[i].ClassSchedule != keys[j].ClassSchedule {
			return keys[i].ClassSchedule < keys[j].ClassSchedule
		}
		return keys[i].DurationMinutes < keys[j].DurationMinutes
	})
	return keys
}

// SortMembers orders a group's records by subject code then section, the
// order used when one member has to speak for the block (rate resolution).
func SortMembers(records []models.ClassRecordDetail) []models.ClassRecordDetail {
	sorted := append([]models.ClassRecordDetail(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SubjectCode != sorted[j].SubjectCode {
			return sorted[i].SubjectCode < sorted[j].SubjectCode
		}
		return sorted[i].Section < sorted[j].Section
	})
	return sorted
}
