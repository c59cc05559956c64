package schedule

import (
	"time"

	"github.com/nkotelnikov/calbooking/internal/domain"
)

// GenerateSlots walks the working window of one day and packs as many whole
// slots of the given duration as fit around the busy intervals. busy must
// already be merged and sorted (see MergeBusy). workStart and workEnd are
// hours of the day interpreted in UTC on the given date; a partial remainder
// shorter than duration is dropped. workEnd <= workStart or a non-positive
// duration yields no slots.
func GenerateSlots(busy []domain.BusyInterval, day time.Time, workStart, workEnd int, duration time.Duration) []domain.FreeSlot {
	if duration <= 0 || workEnd <= workStart {
		return nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), workStart, 0, 0, 0, time.UTC)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), workEnd, 0, 0, 0, time.UTC)

	var slots []domain.FreeSlot
	cursor := dayStart

	pack := func(limit time.Time) {
		if limit.After(dayEnd) {
			limit = dayEnd
		}
		for !cursor.Add(duration).After(limit) {
			slots = append(slots, domain.FreeSlot{Start: cursor, End: cursor.Add(duration)})
			cursor = cursor.Add(duration)
		}
	}

	for _, b := range busy {
		if !b.End.After(dayStart) {
			continue
		}
		if !b.Start.Before(dayEnd) {
			break
		}
		pack(b.Start)
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	pack(dayEnd)

	return slots
}
