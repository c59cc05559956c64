package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/config"
	"github.com/nkotelnikov/calbooking/internal/email"
	"github.com/nkotelnikov/calbooking/internal/kafka"
	"github.com/nkotelnikov/calbooking/internal/repository"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName, logger)

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
			sendCtx, cancel := email.WithSendTimeout(ctx)
			defer cancel()
			if err := sender.Send(sendCtx, event); err != nil {
				// Mail failures never feed back into the booking path.
				logger.Error("send email failed",
					zap.String("booking_ref", event.BookingRef),
					zap.String("type", event.Type),
					zap.Error(err))
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.ReminderSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	lead := time.Duration(cfg.Booking.ReminderLeadHours) * time.Hour

	for {
		select {
		case <-sweepTicker.C:
			sweepReminders(ctx, bookingRepo, producer, cfg.Kafka.NotificationsTopic, lead, logger)
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}

type reminderPublisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// sweepReminders publishes a reminder event for every confirmed booking
// starting within the lead window that has not been reminded yet. Failures
// leave the row unmarked so the next tick retries it.
func sweepReminders(ctx context.Context, repo repository.BookingRepository, producer reminderPublisher, topic string, lead time.Duration, logger *zap.Logger) {
	now := time.Now().UTC()
	due, err := repo.ListDueReminders(ctx, now, now.Add(lead))
	if err != nil {
		logger.Error("list due reminders failed", zap.Error(err))
		return
	}

	for _, b := range due {
		event := kafka.BookingEvent{
			Type:       kafka.EventBookingReminder,
			BookingRef: b.BookingRef,
			CustomerID: b.CustomerID,
			Email:      b.CustomerEmail,
			ServiceID:  b.ServiceID,
			CalendarID: b.CalendarID,
			EventID:    b.EventID,
			Start:      b.Start,
			End:        b.End,
			Status:     string(b.Status),
		}
		if err := producer.Publish(ctx, topic, b.BookingRef, event); err != nil {
			logger.Error("publish reminder failed",
				zap.String("booking_ref", b.BookingRef),
				zap.Error(err))
			continue
		}
		if err := repo.MarkReminded(ctx, b.BookingRef); err != nil {
			logger.Error("mark reminded failed",
				zap.String("booking_ref", b.BookingRef),
				zap.Error(err))
		}
	}

	if len(due) > 0 {
		logger.Info("reminder sweep complete", zap.Int("due", len(due)))
	}
}
