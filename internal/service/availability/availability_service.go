// Package availability turns external-calendar busy data into bookable
// fixed-duration slots for one day across a set of calendars.
package availability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/internal/calendar"
	"github.com/nkotelnikov/calbooking/internal/domain"
	"github.com/nkotelnikov/calbooking/internal/schedule"
)

type Query struct {
	CalendarIDs     []string
	Date            string // "2006-01-02"
	DurationMinutes int
	WorkStart       int
	WorkEnd         int
}

// Cache is the availability slice of the Redis cache.
type Cache interface {
	GetAvailability(ctx context.Context, key string) (*domain.DayAvailability, error)
	SetAvailability(ctx context.Context, key string, day *domain.DayAvailability) error
}

type AvailabilityUseCase interface {
	GetAvailability(ctx context.Context, query Query) (*domain.DayAvailability, error)
}

type Service struct {
	calendar    calendar.Client
	cache       Cache
	callTimeout time.Duration
	log         *zap.Logger
}

type ServiceOption func(*Service)

func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.callTimeout = d
	}
}

const defaultCallTimeout = 15 * time.Second

func NewService(cal calendar.Client, cache Cache, log *zap.Logger, opts ...ServiceOption) *Service {
	service := &Service{
		calendar:    cal,
		cache:       cache,
		callTimeout: defaultCallTimeout,
		log:         log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

var _ AvailabilityUseCase = (*Service)(nil)

func (s *Service) GetAvailability(ctx context.Context, query Query) (*domain.DayAvailability, error) {
	if len(query.CalendarIDs) == 0 {
		return nil, errors.New("at least one calendar id is required")
	}
	if query.DurationMinutes <= 0 {
		return nil, errors.New("duration must be positive")
	}
	day, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	key := cacheKey(query)
	if s.cache != nil {
		if cached, err := s.cache.GetAvailability(ctx, key); err != nil {
			s.log.Warn("availability cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)

	queryCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	busyByCalendar, err := s.calendar.QueryBusy(queryCtx, query.CalendarIDs, from, to)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("query busy: %w", err)
	}

	// Busy time on any calendar blocks the slot for all of them.
	intervals, malformed := s.parseBusy(busyByCalendar)
	merged, invalid := schedule.MergeBusy(intervals)
	slots := schedule.GenerateSlots(merged, day, query.WorkStart, query.WorkEnd,
		time.Duration(query.DurationMinutes)*time.Minute)

	result := &domain.DayAvailability{
		Date:        query.Date,
		CalendarIDs: query.CalendarIDs,
		Slots:       slots,
		Dropped:     malformed + invalid,
	}

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, key, result); err != nil {
			s.log.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *Service) parseBusy(busyByCalendar map[string][]calendar.BusyEntry) ([]domain.BusyInterval, int) {
	var intervals []domain.BusyInterval
	malformed := 0
	for calendarID, entries := range busyByCalendar {
		for _, entry := range entries {
			start, startErr := time.Parse(time.RFC3339, entry.Start)
			end, endErr := time.Parse(time.RFC3339, entry.End)
			if startErr != nil || endErr != nil {
				malformed++
				s.log.Warn("malformed busy entry skipped",
					zap.String("calendar_id", calendarID),
					zap.String("start", entry.Start),
					zap.String("end", entry.End))
				continue
			}
			intervals = append(intervals, domain.BusyInterval{Start: start, End: end})
		}
	}
	return intervals, malformed
}

func cacheKey(query Query) string {
	ids := make([]string, len(query.CalendarIDs))
	copy(ids, query.CalendarIDs)
	sort.Strings(ids)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%d|%s", query.Date, query.DurationMinutes,
		query.WorkStart, query.WorkEnd, strings.Join(ids, ","))
	return hex.EncodeToString(h.Sum(nil))
}
