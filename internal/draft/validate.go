package draft

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateStep checks the part of the draft edited on step and returns one
// human-readable message per violation. An empty result means the step is
// complete. It has no side effects.
func ValidateStep(step types.Step, d types.Draft) []string {
	var errs []string

	switch step {
	case types.StepProfileInfo:
		p := d.ProfileInfo
		if blank(p.FullName) {
			errs = append(errs, "Full Name is required")
		}
		if blank(p.Designation) {
			errs = append(errs, "Designation is required")
		}
		if blank(p.Summary) {
			errs = append(errs, "Summary is required")
		}

	case types.StepContactInfo:
		c := d.ContactInfo
		if blank(c.Email) || !emailPattern.MatchString(c.Email) {
			errs = append(errs, "Valid email is required.")
		}
		if blank(c.Phone) || !phonePattern.MatchString(c.Phone) {
			errs = append(errs, "Valid 10-digit phone number is required")
		}

	case types.StepWorkExperience:
		for i, exp := range d.WorkExperience {
			n := i + 1
			if blank(exp.Company) {
				errs = append(errs, fmt.Sprintf("Company is required in experience %d", n))
			}
			if blank(exp.Role) {
				errs = append(errs, fmt.Sprintf("Role is required in experience %d", n))
			}
			if exp.StartDate == "" || exp.EndDate == "" {
				errs = append(errs, fmt.Sprintf("Start and End dates are required in experience %d", n))
			}
		}

	case types.StepEducationInfo:
		for i, edu := range d.Education {
			n := i + 1
			if blank(edu.Degree) {
				errs = append(errs, fmt.Sprintf("Degree is required in education %d", n))
			}
			if blank(edu.Institution) {
				errs = append(errs, fmt.Sprintf("Institution is required in education %d", n))
			}
			if edu.StartDate == "" || edu.EndDate == "" {
				errs = append(errs, fmt.Sprintf("Start and End dates are required in education %d", n))
			}
		}

	case types.StepSkills:
		for i, sk := range d.Skills {
			n := i + 1
			if blank(sk.Name) {
				errs = append(errs, fmt.Sprintf("Skill name is required in skill %d", n))
			}
			if sk.Progress < 1 || sk.Progress > 100 {
				errs = append(errs, fmt.Sprintf("Skill progress must be between 1 and 100 in skill %d", n))
			}
		}

	case types.StepProjects:
		for i, p := range d.Projects {
			n := i + 1
			if blank(p.Title) {
				errs = append(errs, fmt.Sprintf("Project Title is required in project %d", n))
			}
			if blank(p.Description) {
				errs = append(errs, fmt.Sprintf("Project description is required in project %d", n))
			}
		}

	case types.StepCertifications:
		for i, c := range d.Certifications {
			n := i + 1
			if blank(c.Title) {
				errs = append(errs, fmt.Sprintf("Certification Title is required in certification %d", n))
			}
			if blank(c.Issuer) {
				errs = append(errs, fmt.Sprintf("Issuer is required in certification %d", n))
			}
		}

	case types.StepAdditionalInfo:
		if len(d.Languages) == 0 || blank(d.Languages[0].Name) {
			errs = append(errs, "At least one language is required")
		}
		if len(d.Interests) == 0 || blank(d.Interests[0]) {
			errs = append(errs, "At least one interest is required")
		}
	}

	return errs
}
