package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/resume-studio/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintDraftSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	d := &types.Draft{
		Title:       "Jane Doe Resume",
		Template:    types.Template{Theme: "modern"},
		ProfileInfo: types.ProfileInfo{FullName: "Jane Doe", Designation: "Engineer"},
		WorkExperience: []types.WorkExperience{
			{Company: "Acme", Role: "Engineer"},
			{},
		},
		Skills: []types.Skill{{Name: "Go"}},
	}

	p.PrintDraftSummary(d, 42)
	output := buf.String()

	assert.Contains(t, output, "DRAFT SUMMARY")
	assert.Contains(t, output, "Jane Doe Resume")
	assert.Contains(t, output, "Completion: 42%")
	assert.Contains(t, output, "Engineer, Acme")
	assert.Contains(t, output, "(empty)")
}

func TestPrintDraftSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDraftSummary(nil, 0)
	assert.Empty(t, buf.String())
}

func TestPrintDraftSummary_ManyEntries(t *testing.T) {
	var buf bytes.Buffer
	d := &types.Draft{Title: "Busy"}
	for i := 0; i < 8; i++ {
		d.WorkExperience = append(d.WorkExperience, types.WorkExperience{Company: "Co", Role: "Role"})
	}

	NewPrinter(&buf).PrintDraftSummary(d, 100)
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintStepChecks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStepChecks([]StepResult{
		{Step: types.StepProfileInfo},
		{Step: types.StepContactInfo, Messages: []string{"Valid email is required."}},
	})
	output := buf.String()

	assert.Contains(t, output, "STEP CHECKS")
	assert.Contains(t, output, "1 of 2 steps incomplete")
	assert.Contains(t, output, "✓ profile-info")
	assert.Contains(t, output, "⚠ contact-info")
	assert.Contains(t, output, "Valid email is required.")
}

func TestPrintStepChecks_AllComplete(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStepChecks([]StepResult{{Step: types.StepSkills}})
	assert.Contains(t, buf.String(), "ALL STEPS COMPLETE")
}

func TestPrintExport(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintExport(ExportSummary{
		Path:          "/tmp/out/John_Doe_Resume.pdf",
		Pages:         3,
		Bytes:         1024,
		VerifiedPages: 3,
		Thumbnail:     "/tmp/out/John_Doe_Resume.png",
	})
	output := buf.String()

	assert.Contains(t, output, "PDF EXPORT")
	assert.Contains(t, output, "John_Doe_Resume.pdf")
	assert.Contains(t, output, "Pages:  3")
	assert.Contains(t, output, "✓ 3 pages read back")
	assert.Contains(t, output, "Thumb:")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("T", strings.Repeat("x", 200))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
