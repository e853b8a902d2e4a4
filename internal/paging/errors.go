// Package paging tiles a tall snapshot across fixed-size PDF pages.
package paging

import "fmt"

// Error represents a failure to plan or assemble a document
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("paging error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("paging error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
