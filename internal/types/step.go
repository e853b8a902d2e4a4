package types

import "fmt"

// Step identifies one page of the guided editor.
type Step int

// The editor steps in their fixed order.
const (
	StepProfileInfo Step = iota
	StepContactInfo
	StepWorkExperience
	StepEducationInfo
	StepSkills
	StepProjects
	StepCertifications
	StepAdditionalInfo
)

// StepCount is the number of editor steps
const StepCount = 8

var stepNames = [StepCount]string{
	StepProfileInfo:    "profile-info",
	StepContactInfo:    "contact-info",
	StepWorkExperience: "work-experience",
	StepEducationInfo:  "education-info",
	StepSkills:         "skills",
	StepProjects:       "projects",
	StepCertifications: "certifications",
	StepAdditionalInfo: "additional-info",
}

// Steps returns every step in order
func Steps() []Step {
	steps := make([]Step, StepCount)
	for i := range steps {
		steps[i] = Step(i)
	}
	return steps
}

// Valid reports whether s is one of the defined steps
func (s Step) Valid() bool {
	return s >= StepProfileInfo && s <= StepAdditionalInfo
}

// IsLast reports whether s is the final step
func (s Step) IsLast() bool {
	return s == StepAdditionalInfo
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// MarshalText encodes the step by name
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step: %d", int(s))
	}
	return []byte(stepNames[s]), nil
}

// UnmarshalText decodes a step name
func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// ParseStep converts a step name such as "work-experience" into a Step
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step: %q", name)
}
