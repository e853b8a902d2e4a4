// Package draft implements the pure mutation, validation and scoring functions
// for resume drafts, plus the step-by-step editor state machine.
package draft

import "fmt"

// FieldError reports an unknown section or field, or a value of the wrong type
type FieldError struct {
	Section string
	Key     string
	Message string
	Cause   error
}

func (e *FieldError) Error() string {
	target := e.Section
	if e.Key != "" {
		target += "." + e.Key
	}
	if e.Cause != nil {
		return fmt.Sprintf("field error: %s: %s: %v", target, e.Message, e.Cause)
	}
	return fmt.Sprintf("field error: %s: %s", target, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}

// IndexError reports an element index outside the bounds of a sequence
type IndexError struct {
	Section string
	Index   int
	Length  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range for %s (length %d)", e.Index, e.Section, e.Length)
}
