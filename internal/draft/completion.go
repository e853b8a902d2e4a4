package draft

import (
	"math"
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

type tally struct {
	filled, total int
}

func (t *tally) count(present bool) {
	t.total++
	if present {
		t.filled++
	}
}

// Completion returns the share of populated fields as a whole percentage.
// Sequence elements each add their own weight, so long sections dominate the
// denominator. A draft with nothing countable scores 0.
func Completion(d types.Draft) int {
	var t tally

	t.count(d.ProfileInfo.FullName != "")
	t.count(d.ProfileInfo.Designation != "")
	t.count(d.ProfileInfo.Summary != "")

	t.count(d.ContactInfo.Email != "")
	t.count(d.ContactInfo.Phone != "")

	for _, exp := range d.WorkExperience {
		t.count(exp.Company != "")
		t.count(exp.Role != "")
		t.count(exp.StartDate != "")
		t.count(exp.EndDate != "")
		t.count(exp.Description != "")
	}

	for _, edu := range d.Education {
		t.count(edu.Degree != "")
		t.count(edu.Institution != "")
		t.count(edu.StartDate != "")
		t.count(edu.EndDate != "")
	}

	for _, sk := range d.Skills {
		t.count(sk.Name != "")
		t.count(sk.Progress > 0)
	}

	for _, p := range d.Projects {
		t.count(p.Title != "")
		t.count(p.Description != "")
		t.count(p.GitHub != "")
		t.count(p.LiveDemo != "")
	}

	for _, c := range d.Certifications {
		t.count(c.Title != "")
		t.count(c.Issuer != "")
		t.count(c.Year != "")
	}

	for _, l := range d.Languages {
		t.count(l.Name != "")
		t.count(l.Progress > 0)
	}

	for _, interest := range d.Interests {
		t.count(strings.TrimSpace(interest) != "")
	}

	if t.total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(t.filled) / float64(t.total)))
}
