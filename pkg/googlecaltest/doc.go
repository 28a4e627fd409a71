// Package googlecaltest provides a mock Google Calendar API server for testing.
//
// The mock server implements the Google Calendar API v3 Events endpoints that a
// create-then-delete meeting flow needs, allowing tests to run without network
// access or real credentials.
//
// # Supported Operations
//
//   - Insert Event: POST /calendars/{calendarId}/events
//     (with conferenceDataVersion=1 and a conferenceData.createRequest, a meeting
//     link is generated; a repeated requestId returns the same link)
//   - Get Event: GET /calendars/{calendarId}/events/{eventId}
//   - Delete Event: DELETE /calendars/{calendarId}/events/{eventId}
//
// Every request must carry an "Authorization: Bearer ..." header; requests
// without one are rejected with 401. Errors use the Google API error envelope,
// so the generated client surfaces them as *googleapi.Error.
//
// # Basic Usage
//
//	server := googlecaltest.NewServer()
//	defer server.Close()
//
//	ctx := context.Background()
//	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}))
//	svc, err := calendar.NewService(ctx,
//	    option.WithHTTPClient(client),
//	    option.WithEndpoint(server.URL))
//
// # Test Helpers
//
//	// Make the next insert fail with 403
//	server.FailNext(http.MethodPost, http.StatusForbidden)
//
//	// Succeed without returning a meeting link
//	server.OmitLinks(true)
//
//	// Inspect traffic
//	reqs := server.Requests()
//	ids := server.ConferenceRequestIDs()
//
//	// Pre-populate and inspect events
//	server.AddEvent("primary", &calendar.Event{Id: "test-event-1"})
//	events := server.GetEvents("primary")
//
//	// Clear all data between tests
//	server.Reset()
package googlecaltest
