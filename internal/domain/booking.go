package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusRescheduled BookingStatus = "rescheduled"
	BookingStatusCancelled   BookingStatus = "cancelled"
)

// Booking is the local record of an appointment whose source of truth for
// the time slot is an event in an external calendar (EventID on CalendarID).
type Booking struct {
	ID             int64
	BookingRef     string
	IdempotencyKey string
	CustomerID     string
	CustomerEmail  string
	AgentID        string
	CalendarID     string
	EventID        string
	ServiceID      string
	Start          time.Time
	End            time.Time
	Status         BookingStatus
	Paid           bool
	RemindedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type Customer struct {
	CustomerID string
	Name       string
	Email      string
	Phone      string
}

func (c Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.CustomerID
}
