package booking

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid booking input")
	ErrInvalidRange     = errors.New("end must be after start")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingCancelled = errors.New("booking is cancelled")
	ErrCalendarCreate   = errors.New("calendar event creation failed")
	ErrCalendarUpdate   = errors.New("calendar event update failed")
	ErrStoreCreate      = errors.New("booking persistence failed")
	ErrStoreUpdate      = errors.New("booking update failed")
)
