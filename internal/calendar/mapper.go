package calendar

import (
	"time"

	"github.com/drewfead/meetlink/internal/meeting"
	"google.golang.org/api/calendar/v3"
)

const entryPointVideo = "video"

// MapRequestToEvent converts a meeting request to a conferencing-enabled
// Google Calendar Event
func MapRequestToEvent(req meeting.Request) *calendar.Event {
	solution := req.SolutionType
	if solution == "" {
		solution = meeting.SolutionHangoutsMeet
	}

	return &calendar.Event{
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: req.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: solution,
				},
			},
		},
	}
}

// MeetingLink extracts the meeting link from a created event. hangoutLink is
// preferred; the first video entry point is used when it is absent.
func MeetingLink(event *calendar.Event) string {
	if event == nil {
		return ""
	}
	if event.HangoutLink != "" {
		return event.HangoutLink
	}
	if event.ConferenceData == nil {
		return ""
	}
	for _, ep := range event.ConferenceData.EntryPoints {
		if ep != nil && ep.EntryPointType == entryPointVideo && ep.Uri != "" {
			return ep.Uri
		}
	}
	return ""
}
