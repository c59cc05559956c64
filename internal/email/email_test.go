package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nkotelnikov/calbooking/internal/kafka"
)

func testEvent(eventType string) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:       eventType,
		BookingRef: "BK-abc123def456",
		Email:      "jo@example.com",
		ServiceID:  "svc-facial",
		Start:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Status:     "confirmed",
	}
}

func TestRenderBookingEmail_Confirmed(t *testing.T) {
	subject, plain, html := renderBookingEmail(testEvent(kafka.EventBookingConfirmed))

	assert.Equal(t, "Booking Confirmed — svc-facial (BK-abc123def456)", subject)
	assert.Contains(t, plain, "confirmed for Tue, 10 Mar 2026 09:00 UTC")
	assert.Contains(t, html, "<p>")
}

func TestRenderBookingEmail_Cancelled(t *testing.T) {
	subject, plain, _ := renderBookingEmail(testEvent(kafka.EventBookingCancelled))

	assert.Equal(t, "Booking Cancelled — BK-abc123def456", subject)
	assert.Contains(t, plain, "has been cancelled")
}

func TestRenderBookingEmail_Reminder(t *testing.T) {
	subject, plain, _ := renderBookingEmail(testEvent(kafka.EventBookingReminder))

	assert.Contains(t, subject, "Reminder")
	assert.Contains(t, plain, "starts at")
}

func TestRenderBookingEmail_UnknownTypeFallsBack(t *testing.T) {
	subject, plain, _ := renderBookingEmail(testEvent("something_else"))

	assert.Contains(t, subject, "Booking Update")
	assert.Contains(t, plain, "status: confirmed")
}
