// Command meetlink creates an instant Google Meet link.
//
// It creates a conferencing-enabled event on the primary Google Calendar,
// prints the generated link, copies it to the clipboard, deletes the event
// and opens the link in the default browser. A request identifier kept in
// the data directory makes a re-run after a failed create safe: the same
// identifier is sent again and the calendar deduplicates it.
//
// The data directory (~/.meet_data by default, or --data) holds:
//
//	credentials.json  OAuth client secret for an installed app
//	tokencache.json   cached OAuth token, written on first authorization
//	request_id_cache  the request identifier, a single decimal integer
//
// Sources are formatted with golangci-lint; to reformat run:
//
//	go generate ./...
package main

//go:generate go run github.com/golangci/golangci-lint/v2/cmd/golangci-lint@v2.8.0 fmt ./...
