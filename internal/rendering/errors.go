// Package rendering turns drafts into the HTML preview that the capture
// stack snapshots.
package rendering

import "fmt"

// Stages at which a preview can fail.
const (
	PhaseLoad    = "load"
	PhaseParse   = "parse"
	PhaseExecute = "execute"
	PhaseMount   = "mount"
)

// TemplateError reports a preview template that failed at Phase. Template is
// the file path, empty for the built-in template.
type TemplateError struct {
	Phase    string
	Template string
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	name := e.Template
	if name == "" {
		name = "builtin"
	}
	msg := fmt.Sprintf("preview %s (%s): %s", name, e.Phase, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
