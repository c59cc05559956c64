package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer reads booking lifecycle events from the notifications topic.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume decodes each message into a BookingEvent and hands it to the
// handler. Messages that fail to decode are skipped; the reader has already
// committed past them and a payload that never parsed will not parse on
// redelivery either. Consume returns on reader or handler error.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeBookingEvent(msg.Value)
		if err != nil {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeBookingEvent(value []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return BookingEvent{}, err
	}
	if event.Type == "" {
		return BookingEvent{}, errors.New("event type is empty")
	}
	return event, nil
}
