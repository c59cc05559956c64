package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/internal/domain"
	"github.com/nkotelnikov/calbooking/internal/kafka"
	"github.com/nkotelnikov/calbooking/internal/repository"
)

type fakeReminderRepo struct {
	repository.BookingRepository
	due      []domain.Booking
	listErr  error
	reminded []string
}

func (f *fakeReminderRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	return f.due, f.listErr
}

func (f *fakeReminderRepo) MarkReminded(ctx context.Context, ref string) error {
	f.reminded = append(f.reminded, ref)
	return nil
}

type fakePublisher struct {
	events []kafka.BookingEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, value any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, value.(kafka.BookingEvent))
	return nil
}

func TestSweepReminders_PublishesEventWithRecipient(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeReminderRepo{due: []domain.Booking{{
		BookingRef:    "BK-aaaa00000000",
		CustomerID:    "cust-1",
		CustomerEmail: "jo@example.com",
		ServiceID:     "svc-facial",
		Start:         start,
		End:           start.Add(30 * time.Minute),
		Status:        domain.BookingStatusConfirmed,
	}}}
	publisher := &fakePublisher{}

	sweepReminders(context.Background(), repo, publisher, "notifications", 24*time.Hour, zap.NewNop())

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, kafka.EventBookingReminder, event.Type)
	assert.Equal(t, "jo@example.com", event.Email)
	assert.Equal(t, "BK-aaaa00000000", event.BookingRef)
	assert.Equal(t, []string{"BK-aaaa00000000"}, repo.reminded)
}

func TestSweepReminders_PublishFailureLeavesRowUnmarked(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeReminderRepo{due: []domain.Booking{{
		BookingRef: "BK-aaaa00000000",
		Start:      start,
		End:        start.Add(30 * time.Minute),
	}}}
	publisher := &fakePublisher{err: errors.New("broker unavailable")}

	sweepReminders(context.Background(), repo, publisher, "notifications", 24*time.Hour, zap.NewNop())

	assert.Empty(t, repo.reminded)
}
