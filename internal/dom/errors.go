// Package dom provides the visual tree that previews are rendered into and
// captured from: an HTML document with a small CSS cascade, node cloning and
// off-viewport mounting of throwaway copies.
package dom

import "fmt"

// ParseError represents a failure to parse markup or a stylesheet
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dom parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("dom parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// TeardownError reports that a mounted container could not be released,
// typically because it was already detached. Callers log it and move on.
type TeardownError struct {
	Message string
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown error: %s", e.Message)
}
