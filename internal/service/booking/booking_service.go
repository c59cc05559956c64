// Package booking coordinates the appointment lifecycle across two systems
// of record: an event in the external calendar and a row in the local store.
// The calendar write always happens first; local failures after a successful
// calendar write trigger a compensating event delete on create, and are
// logged as reconciliation debt on reschedule.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/internal/calendar"
	"github.com/nkotelnikov/calbooking/internal/domain"
	"github.com/nkotelnikov/calbooking/internal/kafka"
	"github.com/nkotelnikov/calbooking/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	RescheduleBooking(ctx context.Context, ref string, newStart, newEnd time.Time) (*domain.Booking, error)
	CancelBooking(ctx context.Context, ref string) (*domain.Booking, error)
	GetBooking(ctx context.Context, ref string) (*domain.Booking, error)
	ListBookings(ctx context.Context, customerID string, upcomingOnly bool) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CreateBookingInput struct {
	IdempotencyKey string
	CalendarID     string
	ServiceID      string
	Start          time.Time
	End            time.Time
	Customer       domain.Customer
	AgentID        string
	Notes          string
}

type BookingService struct {
	bookings           repository.BookingRepository
	calendar           calendar.Client
	producer           Producer
	notificationsTopic string
	callTimeout        time.Duration
	log                *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithCallTimeout bounds each individual calendar and store call.
func WithCallTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.callTimeout = d
	}
}

const defaultCallTimeout = 15 * time.Second

func NewBookingService(
	bookings repository.BookingRepository,
	cal calendar.Client,
	producer Producer,
	log *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		calendar:    cal,
		producer:    producer,
		callTimeout: defaultCallTimeout,
		log:         log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if !input.End.After(input.Start) {
		return nil, ErrInvalidRange
	}
	if input.ServiceID == "" {
		return nil, fmt.Errorf("%w: service id is required", ErrInvalidInput)
	}
	if input.Customer.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}

	// Replays must short-circuit before any external side effect.
	if input.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, input.IdempotencyKey)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	ref := newBookingRef()
	eventID, err := s.createEvent(ctx, ref, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCalendarCreate, err)
	}

	booking := &domain.Booking{
		BookingRef:     ref,
		IdempotencyKey: input.IdempotencyKey,
		CustomerID:     input.Customer.CustomerID,
		CustomerEmail:  input.Customer.Email,
		AgentID:        input.AgentID,
		CalendarID:     input.CalendarID,
		EventID:        eventID,
		ServiceID:      input.ServiceID,
		Start:          input.Start,
		End:            input.End,
		Status:         domain.BookingStatusConfirmed,
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	err = s.bookings.Insert(insertCtx, booking)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) && input.IdempotencyKey != "" {
			// A concurrent request with the same key won the insert. Its
			// row is the booking; this request's calendar event is surplus.
			winner, readErr := s.bookings.GetByIdempotencyKey(ctx, input.IdempotencyKey)
			if readErr == nil {
				s.compensate(ctx, input.CalendarID, eventID)
				return winner, nil
			}
		}
		s.compensate(ctx, input.CalendarID, eventID)
		return nil, fmt.Errorf("%w: %w", ErrStoreCreate, err)
	}

	s.notify(ctx, kafka.EventBookingConfirmed, booking)
	return booking, nil
}

func (s *BookingService) RescheduleBooking(ctx context.Context, ref string, newStart, newEnd time.Time) (*domain.Booking, error) {
	if !newEnd.After(newStart) {
		return nil, ErrInvalidRange
	}

	current, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return nil, ErrBookingCancelled
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	err = s.calendar.UpdateEvent(callCtx, current.CalendarID, current.EventID, newStart, newEnd)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCalendarUpdate, err)
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	updated, err := s.bookings.UpdateTimes(updateCtx, ref, newStart, newEnd, domain.BookingStatusRescheduled)
	cancel()
	if err != nil {
		// The calendar already holds the new times; the local row is stale
		// until reconciled. Deliberately not reverted.
		s.log.Error("local update failed after calendar reschedule",
			zap.String("booking_ref", ref),
			zap.String("event_id", current.EventID),
			zap.Time("new_start", newStart),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStoreUpdate, err)
	}

	s.notify(ctx, kafka.EventBookingRescheduled, updated)
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	current, err := s.getByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}

	if current.EventID != "" {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err = s.calendar.DeleteEvent(callCtx, current.CalendarID, current.EventID)
		cancel()
		if err != nil {
			// Local cancellation is the user-facing outcome; a lingering
			// remote event is reconciliation debt, not a failure.
			s.log.Warn("calendar delete failed during cancellation",
				zap.String("booking_ref", ref),
				zap.String("event_id", current.EventID),
				zap.Error(err))
		}
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	updated, err := s.bookings.UpdateStatus(updateCtx, ref, domain.BookingStatusCancelled)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUpdate, err)
	}

	s.notify(ctx, kafka.EventBookingCancelled, updated)
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	return s.getByRef(ctx, ref)
}

func (s *BookingService) ListBookings(ctx context.Context, customerID string, upcomingOnly bool) ([]domain.Booking, error) {
	return s.bookings.ListForCustomer(ctx, customerID, upcomingOnly)
}

func (s *BookingService) getByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	current, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return current, nil
}

func (s *BookingService) createEvent(ctx context.Context, ref string, input CreateBookingInput) (string, error) {
	var attendees []string
	if input.Customer.Email != "" {
		attendees = append(attendees, input.Customer.Email)
	}

	description := fmt.Sprintf("Booking %s for %s", ref, input.Customer.DisplayName())
	if input.Notes != "" {
		description += "\n" + input.Notes
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.calendar.CreateEvent(callCtx, calendar.EventInput{
		CalendarID:     input.CalendarID,
		Summary:        fmt.Sprintf("%s — %s", input.ServiceID, input.Customer.DisplayName()),
		Description:    description,
		Start:          input.Start,
		End:            input.End,
		AttendeeEmails: attendees,
	})
}

// compensate deletes a calendar event whose local row never materialized.
// It runs on a context detached from the request so a caller disconnect
// cannot strand the event.
func (s *BookingService) compensate(ctx context.Context, calendarID, eventID string) {
	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
	defer cancel()
	if err := s.calendar.DeleteEvent(compCtx, calendarID, eventID); err != nil {
		s.log.Error("compensating delete failed, calendar event orphaned",
			zap.String("calendar_id", calendarID),
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

// notify publishes the lifecycle event without awaiting the broker; a failed
// publish never affects the booking outcome.
func (s *BookingService) notify(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}

	event := kafka.BookingEvent{
		Type:       eventType,
		BookingRef: booking.BookingRef,
		CustomerID: booking.CustomerID,
		Email:      booking.CustomerEmail,
		ServiceID:  booking.ServiceID,
		CalendarID: booking.CalendarID,
		EventID:    booking.EventID,
		Start:      booking.Start,
		End:        booking.End,
		Status:     string(booking.Status),
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
	go func() {
		defer cancel()
		if err := s.producer.Publish(publishCtx, s.notificationsTopic, booking.BookingRef, event); err != nil {
			s.log.Warn("notification publish failed",
				zap.String("booking_ref", booking.BookingRef),
				zap.String("type", eventType),
				zap.Error(err))
		}
	}()
}

func newBookingRef() string {
	return "BK-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

var _ BookingUseCase = (*BookingService)(nil)
