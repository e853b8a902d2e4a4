// Package observability provides process logging and formatted output for
// the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintDraftSummary outputs the headline and section sizes of a draft.
func (p *Printer) PrintDraftSummary(d *types.Draft, completion int) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:      %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("Name:       %s\n", d.ProfileInfo.FullName))
	if d.ProfileInfo.Designation != "" {
		sb.WriteString(fmt.Sprintf("Role:       %s\n", d.ProfileInfo.Designation))
	}
	sb.WriteString(fmt.Sprintf("Theme:      %s\n", d.Template.Theme))
	sb.WriteString(fmt.Sprintf("Completion: %d%%\n", completion))
	sb.WriteString("\n")

	sections := []struct {
		name  string
		count int
	}{
		{"Experience", len(d.WorkExperience)},
		{"Education", len(d.Education)},
		{"Skills", len(d.Skills)},
		{"Projects", len(d.Projects)},
		{"Certifications", len(d.Certifications)},
		{"Languages", len(d.Languages)},
		{"Interests", len(d.Interests)},
	}
	for _, s := range sections {
		sb.WriteString(fmt.Sprintf("  • %-15s %d\n", s.name, s.count))
	}

	if len(d.WorkExperience) > 0 {
		sb.WriteString("\nExperience:\n")
		count := min(len(d.WorkExperience), maxItemsToShow)
		for i := 0; i < count; i++ {
			w := d.WorkExperience[i]
			if w.Company == "" && w.Role == "" {
				sb.WriteString("  • (empty)\n")
				continue
			}
			sb.WriteString(fmt.Sprintf("  • %s, %s\n", w.Role, w.Company))
		}
		if len(d.WorkExperience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(d.WorkExperience)-maxItemsToShow))
		}
	}

	p.printBox("DRAFT SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// StepResult pairs an editor step with its validation messages
type StepResult struct {
	Step     types.Step
	Messages []string
}

// PrintStepChecks outputs the validation result of every step.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStepChecks(results []StepResult) {
	failing := 0
	for _, r := range results {
		if len(r.Messages) > 0 {
			failing++
		}
	}
	if failing == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL STEPS COMPLETE")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d of %d steps incomplete:\n\n", failing, len(results)))
	for _, r := range results {
		if len(r.Messages) == 0 {
			sb.WriteString(fmt.Sprintf("✓ %s\n", r.Step))
			continue
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", r.Step))
		count := min(len(r.Messages), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  %s\n", r.Messages[i]))
		}
		if len(r.Messages) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Messages)-maxItemsToShow))
		}
	}

	p.printBox("STEP CHECKS", strings.TrimSuffix(sb.String(), "\n"))
}

// ExportSummary describes a finished export
type ExportSummary struct {
	Path          string
	Pages         int
	Bytes         int
	VerifiedPages int
	Thumbnail     string
}

// PrintExport outputs where an export was written and what it contains.
func (p *Printer) PrintExport(s ExportSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:   %s\n", s.Path))
	sb.WriteString(fmt.Sprintf("Pages:  %d\n", s.Pages))
	sb.WriteString(fmt.Sprintf("Size:   %d bytes", s.Bytes))
	if s.VerifiedPages > 0 {
		status := "✓"
		if s.VerifiedPages != s.Pages {
			status = "✗"
		}
		sb.WriteString(fmt.Sprintf("\nVerify: %s %d pages read back", status, s.VerifiedPages))
	}
	if s.Thumbnail != "" {
		sb.WriteString(fmt.Sprintf("\nThumb:  %s", s.Thumbnail))
	}
	p.printBox("PDF EXPORT", sb.String())
}
