package draft

import (
	"math"

	"github.com/jonathan/resume-studio/internal/types"
)

// Transition describes what a navigation call did
type Transition int

const (
	// Blocked means validation failed and the step did not change
	Blocked Transition = iota
	// Moved means the step pointer changed by one
	Moved
	// PreviewRequested is returned when the last step validates; the caller
	// opens the export preview instead of moving further.
	PreviewRequested
	// ExitRequested is returned when retreating from the first step; the
	// caller leaves the editor.
	ExitRequested
)

func (t Transition) String() string {
	switch t {
	case Blocked:
		return "blocked"
	case Moved:
		return "moved"
	case PreviewRequested:
		return "preview"
	case ExitRequested:
		return "exit"
	}
	return "unknown"
}

// Editor is the guided editor state: the draft being authored, the current
// step, the navigation progress and the last validation messages. Completion
// is recomputed on every mutation so it is never stale.
//
// Editor is a value; every method returns the next state and leaves the
// receiver untouched.
type Editor struct {
	Draft      types.Draft `json:"draft"`
	Step       types.Step  `json:"step"`
	Progress   int         `json:"progress"`
	Completion int         `json:"completion"`
	Errors     []string    `json:"errors"`
}

// NewEditor starts an editor on the first step for d.
func NewEditor(d types.Draft) Editor {
	return Editor{
		Draft:      d,
		Step:       types.StepProfileInfo,
		Completion: Completion(d),
		Errors:     []string{},
	}
}

// StepProgress returns the navigation percentage for a step index.
func StepProgress(step types.Step) int {
	return int(math.Round(float64(step) / float64(types.StepCount-1) * 100))
}

func (e Editor) withDraft(d types.Draft) Editor {
	e.Draft = d
	e.Completion = Completion(d)
	return e
}

// Advance validates the current step. When validation fails the step stays
// put and Errors holds the messages. On the last step a passing validation
// requests the preview; elsewhere it moves forward by one.
func (e Editor) Advance() (Editor, Transition) {
	errs := ValidateStep(e.Step, e.Draft)
	if len(errs) > 0 {
		e.Errors = errs
		return e, Blocked
	}

	e.Errors = []string{}
	if e.Step.IsLast() {
		return e, PreviewRequested
	}

	e.Step++
	e.Progress = StepProgress(e.Step)
	return e, Moved
}

// Retreat moves back one step. On the first step it reports ExitRequested and
// leaves the state unchanged.
func (e Editor) Retreat() (Editor, Transition) {
	if e.Step == types.StepProfileInfo {
		return e, ExitRequested
	}
	e.Step--
	e.Progress = StepProgress(e.Step)
	return e, Moved
}

// UpdateField applies UpdateField to the draft.
func (e Editor) UpdateField(section types.Section, key string, value any) (Editor, error) {
	d, err := UpdateField(e.Draft, section, key, value)
	if err != nil {
		return e, err
	}
	return e.withDraft(d), nil
}

// UpdateArrayItem applies UpdateArrayItem to the draft.
func (e Editor) UpdateArrayItem(section types.Section, index int, key string, value any) (Editor, error) {
	d, err := UpdateArrayItem(e.Draft, section, index, key, value)
	if err != nil {
		return e, err
	}
	return e.withDraft(d), nil
}

// AppendArrayItem applies AppendArrayItem to the draft.
func (e Editor) AppendArrayItem(section types.Section, item any) (Editor, error) {
	d, err := AppendArrayItem(e.Draft, section, item)
	if err != nil {
		return e, err
	}
	return e.withDraft(d), nil
}

// RemoveArrayItem applies RemoveArrayItem to the draft.
func (e Editor) RemoveArrayItem(section types.Section, index int) Editor {
	return e.withDraft(RemoveArrayItem(e.Draft, section, index))
}

// SetTheme applies SetTheme to the draft.
func (e Editor) SetTheme(theme string, palette []string) Editor {
	return e.withDraft(SetTheme(e.Draft, theme, palette))
}

// SetTitle applies SetTitle to the draft.
func (e Editor) SetTitle(title string) Editor {
	return e.withDraft(SetTitle(e.Draft, title))
}

// SetThumbnail records the reference of an uploaded thumbnail.
func (e Editor) SetThumbnail(ref string) Editor {
	d := e.Draft
	d.ThumbnailLink = ref
	return e.withDraft(d)
}

// Payload returns the body persisted on save.
func (e Editor) Payload() types.DraftPayload {
	return types.DraftPayload{Draft: e.Draft, Completion: Completion(e.Draft)}
}
