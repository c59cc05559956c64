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

	"github.com/nkotelnikov/calbooking/api"
	"github.com/nkotelnikov/calbooking/config"
	"github.com/nkotelnikov/calbooking/internal/bootstrap"
	"github.com/nkotelnikov/calbooking/internal/cache"
	"github.com/nkotelnikov/calbooking/internal/calendar"
	"github.com/nkotelnikov/calbooking/internal/kafka"
	"github.com/nkotelnikov/calbooking/internal/llm"
	"github.com/nkotelnikov/calbooking/internal/repository"
	"github.com/nkotelnikov/calbooking/internal/service/availability"
	"github.com/nkotelnikov/calbooking/internal/service/booking"
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

	calendarClient, err := calendar.NewGoogleClient(ctx, calendar.GoogleConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		Impersonate:     cfg.Google.Impersonate,
		SendUpdates:     cfg.Google.SendUpdates,
	})
	if err != nil {
		logger.Fatal("init calendar client", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis,
		time.Duration(cfg.Booking.SlotsCacheTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.SummaryCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	callTimeout := time.Duration(cfg.Booking.CallTimeoutSeconds) * time.Second
	bookingRepo := repository.NewBookingRepository(pool)

	availabilityService := availability.NewService(calendarClient, redisCache, logger,
		availability.WithCallTimeout(callTimeout))
	bookingService := booking.NewBookingService(bookingRepo, calendarClient, producer, logger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithCallTimeout(callTimeout))

	var summarizer llm.Summarizer
	if cfg.LLM.APIKey != "" {
		generator, err := llm.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logger.Fatal("init llm generator", zap.Error(err))
		}
		defer generator.Close()
		summarizer = llm.NewService(generator, redisCache, logger)
	}

	err = bootstrap.Run(ctx, cfg, logger,
		api.NewAvailabilityHandler(availabilityService, cfg.Booking),
		api.NewBookingHandler(bookingService),
		api.NewSummaryHandler(summarizer),
	)
	if err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
