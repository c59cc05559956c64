package email

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/internal/kafka"
)

type Sender interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// SendGridSender renders and sends one email per booking event. Events
// without a recipient address are skipped, not failed.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *zap.Logger
}

func NewSendGridSender(apiKey, fromEmail, fromName string, log *zap.Logger) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		log:    log,
	}
}

var _ Sender = (*SendGridSender)(nil)

func (s *SendGridSender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		s.log.Debug("booking event without recipient, skipping email",
			zap.String("booking_ref", event.BookingRef),
			zap.String("type", event.Type))
		return nil
	}

	subject, plain, html := renderBookingEmail(event)
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", event.Email), plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func renderBookingEmail(event kafka.BookingEvent) (subject, plain, html string) {
	when := event.Start.UTC().Format("Mon, 02 Jan 2006 15:04 MST")

	switch event.Type {
	case kafka.EventBookingConfirmed:
		subject = fmt.Sprintf("Booking Confirmed — %s (%s)", event.ServiceID, event.BookingRef)
		plain = fmt.Sprintf("Your booking %s for %s is confirmed for %s.", event.BookingRef, event.ServiceID, when)
	case kafka.EventBookingRescheduled:
		subject = fmt.Sprintf("Booking Updated — %s (%s)", event.ServiceID, event.BookingRef)
		plain = fmt.Sprintf("Your booking %s for %s has been moved to %s.", event.BookingRef, event.ServiceID, when)
	case kafka.EventBookingCancelled:
		subject = fmt.Sprintf("Booking Cancelled — %s", event.BookingRef)
		plain = fmt.Sprintf("Your booking %s has been cancelled.", event.BookingRef)
	case kafka.EventBookingReminder:
		subject = fmt.Sprintf("Reminder — %s (%s)", event.ServiceID, event.BookingRef)
		plain = fmt.Sprintf("Reminder: your booking %s for %s starts at %s.", event.BookingRef, event.ServiceID, when)
	default:
		subject = fmt.Sprintf("Booking Update — %s", event.BookingRef)
		plain = fmt.Sprintf("Your booking %s was updated (status: %s).", event.BookingRef, event.Status)
	}

	html = fmt.Sprintf("<p>%s</p>", plain)
	return subject, plain, html
}

// deadline for outbound sends when the caller did not set one
const defaultSendTimeout = 10 * time.Second

// WithSendTimeout bounds a send context if it is unbounded.
func WithSendTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultSendTimeout)
}
