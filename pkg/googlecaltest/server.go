// Package googlecaltest provides a mock Google Calendar API server for testing.
// It implements the subset of the Google Calendar API v3 Events endpoints that
// meetlink uses: insert with conference creation, get and delete.
package googlecaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Request records one call received by the server.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}

// Server is a mock Google Calendar API server for testing.
type Server struct {
	*httptest.Server
	mu          sync.RWMutex
	events      map[string]map[string]*calendar.Event // calendarID -> eventID -> event
	conferences map[string]string                     // requestId -> meeting link
	failures    map[string][]int                      // method -> queued status codes
	requests    []Request
	requestIDs  []string // createRequest.requestId of each conferencing insert, in order
	omitLinks   bool
	nextID      int
	nextMeeting int
}

// NewServer creates a new mock Google Calendar API server.
func NewServer() *Server {
	s := &Server{}
	s.reset()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) reset() {
	s.events = make(map[string]map[string]*calendar.Event)
	s.conferences = make(map[string]string)
	s.failures = make(map[string][]int)
	s.requests = nil
	s.requestIDs = nil
	s.omitLinks = false
	s.nextID = 1
	s.nextMeeting = 1
}

// handleRequest records the call, enforces bearer auth and routes it.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
	})
	status := s.popFailure(r.Method)
	s.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeError(w, http.StatusUnauthorized, "Request is missing required authentication credential.")
		return
	}

	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}

	// Check if this is a calendar events request
	if !strings.Contains(r.URL.Path, "/calendars/") || !strings.Contains(r.URL.Path, "/events") {
		writeError(w, http.StatusNotFound, "unsupported endpoint")
		return
	}
	s.handleCalendars(w, r)
}

// popFailure returns the next injected status for method, or 0. Caller holds mu.
func (s *Server) popFailure(method string) int {
	queue := s.failures[method]
	if len(queue) == 0 {
		return 0
	}
	s.failures[method] = queue[1:]
	return queue[0]
}

// handleCalendars routes calendar-related requests.
func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	// Parse URL: /calendar/v3/calendars/{calendarId}/events[/{eventId}]
	path := r.URL.Path

	idx := strings.Index(path, "/calendars/")
	path = path[idx+len("/calendars/"):]
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) < 2 || parts[1] != "events" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", parts))
		return
	}

	calendarID := parts[0]

	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.insertEvent(w, r, calendarID)
	case len(parts) == 3 && r.Method == http.MethodGet:
		s.getEvent(w, calendarID, parts[2])
	case len(parts) == 3 && r.Method == http.MethodDelete:
		s.deleteEvent(w, calendarID, parts[2])
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// insertEvent handles POST /calendars/{calendarId}/events
func (s *Server) insertEvent(w http.ResponseWriter, r *http.Request, calendarID string) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event.Id = fmt.Sprintf("event%d", s.nextID)
	s.nextID++

	event.Status = "confirmed"
	event.Created = time.Now().Format(time.RFC3339)
	event.Updated = event.Created
	event.HtmlLink = fmt.Sprintf("https://calendar.google.com/event?eid=%s", event.Id)

	// Conference data is only honoured with conferenceDataVersion=1
	if r.URL.Query().Get("conferenceDataVersion") == "1" && event.ConferenceData != nil && event.ConferenceData.CreateRequest != nil {
		s.attachConference(&event)
	} else {
		event.ConferenceData = nil
	}

	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = &event

	writeJSON(w, http.StatusOK, &event)
}

// attachConference fills in the generated meeting. A repeated requestId yields
// the same meeting. Caller holds mu.
func (s *Server) attachConference(event *calendar.Event) {
	req := event.ConferenceData.CreateRequest
	s.requestIDs = append(s.requestIDs, req.RequestId)

	link, ok := s.conferences[req.RequestId]
	if !ok {
		link = fmt.Sprintf("https://meet.google.com/tst-%04d-mtg", s.nextMeeting)
		s.nextMeeting++
		s.conferences[req.RequestId] = link
	}

	req.Status = &calendar.ConferenceRequestStatus{StatusCode: "success"}
	if s.omitLinks {
		return
	}

	event.HangoutLink = link
	event.ConferenceData.ConferenceId = strings.TrimPrefix(link, "https://meet.google.com/")
	event.ConferenceData.EntryPoints = []*calendar.EntryPoint{
		{EntryPointType: "video", Uri: link},
	}
}

// getEvent handles GET /calendars/{calendarId}/events/{eventId}
func (s *Server) getEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event := s.events[calendarID][eventID]
	if event == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// deleteEvent handles DELETE /calendars/{calendarId}/events/{eventId}
func (s *Server) deleteEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.events[calendarID][eventID] == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	delete(s.events[calendarID], eventID)
	w.WriteHeader(http.StatusNoContent)
}

// FailNext makes the next request with the given HTTP method fail with status.
// Calls queue up in order.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], status)
}

// OmitLinks makes inserts succeed without returning a meeting link.
func (s *Server) OmitLinks(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitLinks = omit
}

// Requests returns every request received so far (for test assertions).
func (s *Server) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Request(nil), s.requests...)
}

// ConferenceRequestIDs returns the conference request ids of every
// conferencing insert received so far, in order.
func (s *Server) ConferenceRequestIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.requestIDs...)
}

// Reset clears all events, conferences, injected failures and recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// GetEvents returns all events for a calendar (for test assertions).
func (s *Server) GetEvents(calendarID string) []*calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		events = append(events, evt)
	}
	return events
}

// AddEvent adds a pre-configured event to the server (for test setup).
func (s *Server) AddEvent(calendarID string, event *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Id == "" {
		event.Id = fmt.Sprintf("event%d", s.nextID)
		s.nextID++
	}

	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = event
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError responds in the Google API error envelope so googleapi.Error is populated.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
