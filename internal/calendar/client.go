package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/drewfead/meetlink/internal/meeting"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const primaryCalendarID = "primary"

// APIError carries the HTTP status of a failed calendar call
type APIError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() []error {
	return []error{meeting.ErrAPI, e.Err}
}

func newAPIError(op string, err error) *APIError {
	apiErr := &APIError{Op: op, Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr.StatusCode = gerr.Code
	}
	return apiErr
}

// ErrNoMeetingLink is returned when the event was created but carries no link
var ErrNoMeetingLink = errors.New("response carried no meeting link")

// Client wraps the Google Calendar API service
type Client struct {
	service *calendar.Service
}

// NewClient creates a new Google Calendar API client.
// Optionally accepts an endpoint URL for testing with mock servers.
func NewClient(ctx context.Context, httpClient *http.Client, endpoint ...string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}

	// Add endpoint override if provided
	if len(endpoint) > 0 && endpoint[0] != "" {
		opts = append(opts, option.WithEndpoint(endpoint[0]))
	}

	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	return &Client{
		service: srv,
	}, nil
}

// NewSession creates a client that sends tok as a bearer token on every call
func NewSession(ctx context.Context, tok *oauth2.Token, endpoint string) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	return NewClient(ctx, httpClient, endpoint)
}

// CreateMeeting inserts a conferencing-enabled event on the primary calendar.
// If the event is created but no link comes back, the returned Meeting still
// carries the event id so the caller can clean it up.
func (c *Client) CreateMeeting(ctx context.Context, req meeting.Request) (*meeting.Meeting, error) {
	event := MapRequestToEvent(req)

	created, err := c.service.Events.Insert(primaryCalendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, newAPIError("unable to create event", err)
	}

	if created.Id == "" {
		return nil, newAPIError("unable to create event", errors.New("response carried no event id"))
	}

	m := &meeting.Meeting{
		EventID: created.Id,
		Link:    MeetingLink(created),
	}
	if m.Link == "" {
		return m, newAPIError("unable to create event", ErrNoMeetingLink)
	}

	return m, nil
}

// DeleteMeeting deletes the event backing a meeting from the primary calendar
func (c *Client) DeleteMeeting(ctx context.Context, eventID string) error {
	err := c.service.Events.Delete(primaryCalendarID, eventID).Context(ctx).Do()
	if err != nil {
		return newAPIError("unable to delete event", err)
	}

	return nil
}
