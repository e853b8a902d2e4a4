// Package export coordinates the two export flows of the editor: saving a
// thumbnail with the draft, and assembling the downloadable PDF.
package export

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a flow is started while the same flow is running.
var ErrBusy = errors.New("export already in progress")

// Generic messages shown when a failure carries none of its own.
const (
	MsgSaveFailed   = "Failed to save resume"
	MsgExportFailed = "Failed to generate PDF"
)

// PersistenceError wraps a failure of the persistence collaborator
type PersistenceError struct {
	Op      string
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error (%s): %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("persistence error (%s): %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// userMessage returns the human-readable form of err, or fallback when err
// carries no message.
func userMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
