// Package ledger persists the request identifier used as the idempotency key
// for meeting creation.
//
// The file holds a single unsigned decimal integer. It is read once at the start
// of a run and advanced only after the create call that consumed the value has
// succeeded, so a retry after a failed create reuses the same identifier and the
// provider deduplicates it.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/drewfead/meetlink/internal/meeting"
	"github.com/google/renameio/v2"
)

const filePermMode = 0o600

// Ledger reads and advances the request identifier file
type Ledger struct {
	path string
}

// New returns a Ledger backed by the file at path
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file location
func (l *Ledger) Path() string {
	return l.path
}

// Read returns the current request identifier
func (l *Ledger) Read() (uint64, error) {
	b, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: request id file %s not found (create it containing 0)", meeting.ErrConfig, l.path)
		}
		return 0, fmt.Errorf("%w: unable to read request id file: %w", meeting.ErrConfig, err)
	}

	id, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: request id file %s is malformed: %w", meeting.ErrConfig, l.path, err)
	}

	return id, nil
}

// Advance writes current+1 back to the file. The write replaces the file
// atomically, so a concurrent Read sees either the old or the new value.
func (l *Ledger) Advance(current uint64) error {
	if current == math.MaxUint64 {
		return fmt.Errorf("%w: request id %d cannot be advanced", meeting.ErrLedgerWrite, current)
	}

	return l.write(current + 1)
}

func (l *Ledger) write(id uint64) error {
	if err := renameio.WriteFile(l.path, []byte(strconv.FormatUint(id, 10)), filePermMode); err != nil {
		return fmt.Errorf("%w: unable to write request id file: %w", meeting.ErrLedgerWrite, err)
	}
	return nil
}
