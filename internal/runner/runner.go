// Package runner sequences one meetlink invocation: read the request id,
// authorize, create the conferencing event, deliver the link, advance the
// ledger, delete the event and open the link.
//
// Only the steps up to and including event creation can abort a run. Every
// later step is best-effort: its failure is logged and recorded as a warning,
// because the user already has the link.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/drewfead/meetlink/internal/logging"
	"github.com/drewfead/meetlink/internal/meeting"
	"golang.org/x/oauth2"
)

// Ledger is the persisted request identifier
type Ledger interface {
	Read() (uint64, error)
	Advance(current uint64) error
}

// Authorizer produces the bearer token for the calendar calls
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Session mints and discards meetings on a calendar provider
type Session interface {
	CreateMeeting(ctx context.Context, req meeting.Request) (*meeting.Meeting, error)
	DeleteMeeting(ctx context.Context, eventID string) error
}

// Connector opens a Session authenticated with tok
type Connector func(ctx context.Context, tok *oauth2.Token) (Session, error)

// Clipboard receives the meeting link
type Clipboard interface {
	WriteAll(text string) error
}

// Browser opens the meeting link
type Browser interface {
	OpenURL(url string) error
}

// Runner holds the collaborators of a run
type Runner struct {
	ledger     Ledger
	authorizer Authorizer
	connect    Connector
	clipboard  Clipboard
	browser    Browser
	out        io.Writer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithClock overrides time.Now for the event start time
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger; slog.Default is used otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner. out receives the link and status lines.
func New(ledger Ledger, authorizer Authorizer, connect Connector, clipboard Clipboard, browser Browser, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		ledger:     ledger,
		authorizer: authorizer,
		connect:    connect,
		clipboard:  clipboard,
		browser:    browser,
		out:        out,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithComponent(r.logger, "runner")
	return r
}

// Result describes a completed run
type Result struct {
	Link      string
	RequestID uint64
	State     State
	// Warnings holds the failures of best-effort steps.
	Warnings []error
}

// AbortError is returned when a run stops before the link was obtained
type AbortError struct {
	// State is the last state reached before the failure.
	State State
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("aborted after %s: %v", e.State, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Run performs one create-then-delete cycle. The ledger is advanced only after
// the create call succeeds; a crash between create and advance means the next
// run reuses the same request id.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{State: StateInit}

	id, err := r.ledger.Read()
	if err != nil {
		return nil, r.abort(res, err)
	}
	res.RequestID = id
	r.logger.Debug("read request id", logging.RequestID(id))

	tok, err := r.authorizer.Authorize(ctx)
	if err != nil {
		return nil, r.abort(res, err)
	}
	r.transition(res, StateAuthorized)

	session, err := r.connect(ctx, tok)
	if err != nil {
		return nil, r.abort(res, fmt.Errorf("%w: %w", meeting.ErrAPI, err))
	}

	m, err := session.CreateMeeting(ctx, meeting.NewRequest(id, r.now()))
	if err != nil {
		if m != nil && m.EventID != "" {
			// The event exists but is useless without a link.
			r.deleteEvent(ctx, session, res, m.EventID)
		}
		return nil, r.abort(res, err)
	}
	res.Link = m.Link
	r.transition(res, StateCreated, logging.EventID(m.EventID))

	r.deliver(res)
	r.transition(res, StateLinkDelivered)

	if err := r.ledger.Advance(id); err != nil {
		r.warn(res, "failed to advance request id; the next run will reuse it", err, logging.RequestID(id))
	}
	r.transition(res, StateAdvancedLedger)

	r.deleteEvent(ctx, session, res, m.EventID)
	r.transition(res, StateDeleted)

	if err := r.browser.OpenURL(m.Link); err != nil {
		r.warn(res, "failed to open browser", fmt.Errorf("%w: %w", meeting.ErrBrowser, err))
	}
	r.transition(res, StateDone)

	return res, nil
}

func (r *Runner) deliver(res *Result) {
	fmt.Fprintf(r.out, "Google Meet Link: %s\n", res.Link)

	if err := r.clipboard.WriteAll(res.Link); err != nil {
		r.warn(res, "failed to copy link to clipboard", fmt.Errorf("%w: %w", meeting.ErrClipboard, err))
		return
	}
	fmt.Fprintln(r.out, "Link is copied to the clipboard!")
}

func (r *Runner) deleteEvent(ctx context.Context, session Session, res *Result, eventID string) {
	if err := session.DeleteMeeting(ctx, eventID); err != nil {
		if !errors.Is(err, meeting.ErrAPI) {
			err = fmt.Errorf("%w: %w", meeting.ErrAPI, err)
		}
		r.warn(res, "failed to delete calendar event", err, logging.EventID(eventID))
	}
}

func (r *Runner) transition(res *Result, next State, attrs ...any) {
	r.logger.Debug("state transition", append([]any{"from", res.State.String(), "to", next.String()}, attrs...)...)
	res.State = next
}

func (r *Runner) warn(res *Result, msg string, err error, attrs ...any) {
	res.Warnings = append(res.Warnings, err)
	r.logger.Warn(msg, append([]any{logging.Err(err)}, attrs...)...)
}

func (r *Runner) abort(res *Result, err error) error {
	r.logger.Debug("run aborted", logging.State(res.State), logging.Err(err))
	return &AbortError{State: res.State, Err: err}
}
