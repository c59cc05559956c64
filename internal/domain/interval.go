package domain

import "time"

// BusyInterval is a half-open [Start, End) span during which a calendar is
// occupied.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

func (b BusyInterval) Valid() bool {
	return b.End.After(b.Start)
}

type FreeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayAvailability is the bookable view of one day across a set of calendars.
// Dropped counts busy entries that were malformed or inverted and therefore
// excluded from the computation.
type DayAvailability struct {
	Date        string     `json:"date"`
	CalendarIDs []string   `json:"calendar_ids"`
	Slots       []FreeSlot `json:"slots"`
	Dropped     int        `json:"dropped"`
}
