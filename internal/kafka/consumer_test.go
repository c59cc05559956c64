package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBookingEvent(t *testing.T) {
	payload := []byte(`{
		"type": "booking_confirmed",
		"booking_ref": "BK-abc123def456",
		"customer_id": "cust-1",
		"email": "jo@example.com",
		"service_id": "svc-facial",
		"start": "2026-03-10T09:00:00Z",
		"end": "2026-03-10T09:30:00Z",
		"status": "confirmed"
	}`)

	event, err := decodeBookingEvent(payload)

	require.NoError(t, err)
	assert.Equal(t, EventBookingConfirmed, event.Type)
	assert.Equal(t, "BK-abc123def456", event.BookingRef)
	assert.Equal(t, "jo@example.com", event.Email)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), event.Start)
}

func TestDecodeBookingEvent_MalformedJSON(t *testing.T) {
	_, err := decodeBookingEvent([]byte(`{"type": "booking_confirmed"`))
	assert.Error(t, err)
}

func TestDecodeBookingEvent_MissingType(t *testing.T) {
	_, err := decodeBookingEvent([]byte(`{"booking_ref": "BK-abc123def456"}`))
	assert.Error(t, err)
}
