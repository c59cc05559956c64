// Package calendar abstracts the external calendar the booking flow writes
// through. The remote system owns event state; this package only reports
// whether a failure is worth retrying, it never retries itself.
package calendar

import (
	"context"
	"fmt"
	"time"
)

// BusyEntry carries the remote system's raw RFC3339 timestamps. Parsing and
// validation happen in the availability service so malformed entries can be
// counted instead of failing the whole response.
type BusyEntry struct {
	Start string
	End   string
}

type EventInput struct {
	CalendarID     string
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	AttendeeEmails []string
}

type Client interface {
	// QueryBusy returns busy entries per calendar ID for the given window.
	QueryBusy(ctx context.Context, calendarIDs []string, from, to time.Time) (map[string][]BusyEntry, error)
	// CreateEvent creates an event and returns the remote event ID.
	CreateEvent(ctx context.Context, input EventInput) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, start, end time.Time) error
	// DeleteEvent removes an event. Deleting an event that is already gone
	// is not an error.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// RemoteError wraps a failure at the calendar boundary. Retryable marks
// transient conditions (rate limits, server errors, timeouts); callers decide
// what to do with that.
type RemoteError struct {
	Op        string
	Status    int
	Retryable bool
	Err       error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("calendar %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

var _ error = (*RemoteError)(nil)
