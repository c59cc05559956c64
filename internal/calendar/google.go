package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleClient implements Client over the Google Calendar v3 API using
// service-account credentials, optionally impersonating a workspace user.
type GoogleClient struct {
	svc         *gcal.Service
	sendUpdates string
}

type GoogleConfig struct {
	CredentialsFile string
	// Impersonate, when set, issues domain-wide delegated tokens on behalf
	// of this user instead of acting as the service account itself.
	Impersonate string
	// SendUpdates controls attendee notifications on event writes:
	// "all", "externalOnly" or "none".
	SendUpdates string
}

func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	var opts []option.ClientOption
	if cfg.Impersonate != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		jwt, err := google.JWTConfigFromJSON(data, gcal.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		jwt.Subject = cfg.Impersonate
		opts = append(opts, option.WithTokenSource(jwt.TokenSource(ctx)))
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	sendUpdates := cfg.SendUpdates
	if sendUpdates == "" {
		sendUpdates = "all"
	}
	return &GoogleClient{svc: svc, sendUpdates: sendUpdates}, nil
}

var _ Client = (*GoogleClient)(nil)

func (g *GoogleClient) QueryBusy(ctx context.Context, calendarIDs []string, from, to time.Time) (map[string][]BusyEntry, error) {
	items := make([]*gcal.FreeBusyRequestItem, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		items = append(items, &gcal.FreeBusyRequestItem{Id: id})
	}
	req := &gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   items,
	}

	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, remoteErr("freebusy", err)
	}

	busy := make(map[string][]BusyEntry, len(resp.Calendars))
	for id, cal := range resp.Calendars {
		entries := make([]BusyEntry, 0, len(cal.Busy))
		for _, p := range cal.Busy {
			entries = append(entries, BusyEntry{Start: p.Start, End: p.End})
		}
		busy[id] = entries
	}
	return busy, nil
}

func (g *GoogleClient) CreateEvent(ctx context.Context, input EventInput) (string, error) {
	attendees := make([]*gcal.EventAttendee, 0, len(input.AttendeeEmails))
	for _, email := range input.AttendeeEmails {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}
	event := &gcal.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start:       eventTime(input.Start),
		End:         eventTime(input.End),
		Attendees:   attendees,
	}

	created, err := g.svc.Events.Insert(input.CalendarID, event).
		SendUpdates(g.sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		return "", remoteErr("create", err)
	}
	return created.Id, nil
}

func (g *GoogleClient) UpdateEvent(ctx context.Context, calendarID, eventID string, start, end time.Time) error {
	patch := &gcal.Event{
		Start: eventTime(start),
		End:   eventTime(end),
	}
	_, err := g.svc.Events.Patch(calendarID, eventID, patch).
		SendUpdates(g.sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		return remoteErr("update", err)
	}
	return nil
}

func (g *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.svc.Events.Delete(calendarID, eventID).
		SendUpdates(g.sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return nil
		}
		return remoteErr("delete", err)
	}
	return nil
}

func eventTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.UTC().Format(time.RFC3339),
		TimeZone: "UTC",
	}
}

func remoteErr(op string, err error) *RemoteError {
	status := 0
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}
	return &RemoteError{
		Op:        op,
		Status:    status,
		Retryable: retryable(status, err),
		Err:       err,
	}
}

func retryable(status int, err error) bool {
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
