// Package schedule holds the pure interval arithmetic behind availability:
// merging busy intervals and packing fixed-duration slots into the gaps.
package schedule

import (
	"sort"

	"github.com/nkotelnikov/calbooking/internal/domain"
)

// MergeBusy normalizes an unordered, possibly overlapping set of busy
// intervals into a sorted, pairwise-disjoint set. Intervals that touch
// (next starts exactly where the previous ends) merge into one. Inverted or
// zero-length intervals are dropped and counted, never treated as fatal.
func MergeBusy(busy []domain.BusyInterval) ([]domain.BusyInterval, int) {
	valid := make([]domain.BusyInterval, 0, len(busy))
	dropped := 0
	for _, b := range busy {
		if !b.Valid() {
			dropped++
			continue
		}
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return nil, dropped
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := []domain.BusyInterval{valid[0]}
	for _, b := range valid[1:] {
		last := &merged[len(merged)-1]
		if !b.Start.After(last.End) {
			if b.End.After(last.End) {
				last.End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged, dropped
}
