// Package desktop hands the meeting link to the user's desktop: the system
// clipboard and the default browser.
package desktop

import (
	"errors"
	"io"

	"github.com/atotto/clipboard"
	"github.com/cli/browser"
)

// ErrClipboardUnsupported is returned when no clipboard utility is installed
var ErrClipboardUnsupported = errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")

// Clipboard writes text to the system clipboard
type Clipboard struct{}

// WriteAll copies text to the clipboard
func (Clipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// RedirectBrowserOutput sends the browser launcher's output to w so it does not
// mix with the link on stdout. The launcher's writers are process-wide, so
// this is called once at startup.
func RedirectBrowserOutput(w io.Writer) {
	browser.Stdout = w
	browser.Stderr = w
}

// Browser opens URLs in the default browser
type Browser struct{}

// OpenURL opens url in the default browser
func (Browser) OpenURL(url string) error {
	return browser.OpenURL(url)
}
