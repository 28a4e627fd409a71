package meeting

import "errors"

// Error kinds. Components wrap the underlying cause with one of these so the
// runner and main can classify failures with errors.Is.
var (
	// ErrConfig covers a missing data directory or an unreadable ledger.
	ErrConfig = errors.New("configuration error")
	// ErrAuth covers client secret parsing, consent and token exchange failures.
	ErrAuth = errors.New("authorization error")
	// ErrAPI covers non-success responses and malformed bodies from the calendar API.
	ErrAPI = errors.New("calendar API error")
	// ErrLedgerWrite means the request identifier could not be advanced.
	ErrLedgerWrite = errors.New("ledger write error")
	// ErrClipboard means the link could not be copied to the clipboard.
	ErrClipboard = errors.New("clipboard error")
	// ErrBrowser means the default browser could not be launched.
	ErrBrowser = errors.New("browser launch error")
)
