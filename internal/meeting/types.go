// Package meeting holds the types shared by the components that mint an
// instant meeting link: the outgoing request, the created meeting, and the
// error kinds every component reports failures with.
package meeting

import (
	"strconv"
	"time"
)

const (
	// Duration is the fixed length of the throwaway event.
	Duration = time.Hour

	// SolutionHangoutsMeet is the conference solution type that yields a Meet link.
	SolutionHangoutsMeet = "hangoutsMeet"
)

// Request describes the conferencing-enabled event to create.
type Request struct {
	// RequestID deduplicates creation calls on the provider side.
	RequestID string
	Start     time.Time
	End       time.Time
	// SolutionType selects the conferencing product.
	SolutionType string
}

// NewRequest builds a Request starting at now, keyed by the given ledger value.
func NewRequest(id uint64, now time.Time) Request {
	return Request{
		RequestID:    strconv.FormatUint(id, 10),
		Start:        now,
		End:          now.Add(Duration),
		SolutionType: SolutionHangoutsMeet,
	}
}

// Meeting is the result of a successful create call.
type Meeting struct {
	// EventID addresses the calendar event for the follow-up delete. Never persisted.
	EventID string
	Link    string
}
