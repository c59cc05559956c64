package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is the notification payload published on every booking
// lifecycle transition and consumed by the email worker. Type is one of
// "booking_confirmed", "booking_rescheduled", "booking_cancelled" or
// "booking_reminder".
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingRef string    `json:"booking_ref"`
	CustomerID string    `json:"customer_id"`
	Email      string    `json:"email"`
	ServiceID  string    `json:"service_id"`
	CalendarID string    `json:"calendar_id"`
	EventID    string    `json:"event_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
}

const (
	EventBookingConfirmed   = "booking_confirmed"
	EventBookingRescheduled = "booking_rescheduled"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingReminder    = "booking_reminder"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
