package rendering

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

// DisplayURL strips the scheme, a leading www. and a trailing slash from a
// link for display.
func DisplayURL(link string) string {
	s := strings.TrimSpace(link)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, "/")
}

// DateRange formats a start and end date. A missing end reads as Present.
func DateRange(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "" || strings.EqualFold(end, "present"):
		return start + " - Present"
	case start == "":
		return end
	}
	return start + " - " + end
}

// Initials returns up to two upper-case initials of a name.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

func clampPercent(p int) int {
	return max(0, min(100, p))
}

type dateRange struct {
	StartDate string
	EndDate   string
}

// mergeDateRanges collects unique date ranges, sorts them by start date and
// joins them with commas
func mergeDateRanges(entries []types.WorkExperience) string {
	seen := make(map[string]bool)
	ranges := []dateRange{}
	for _, e := range entries {
		if e.StartDate == "" && e.EndDate == "" {
			continue
		}
		key := e.StartDate + "-" + e.EndDate
		if !seen[key] {
			seen[key] = true
			ranges = append(ranges, dateRange{StartDate: e.StartDate, EndDate: e.EndDate})
		}
	}
	if len(ranges) == 0 {
		return ""
	}

	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].StartDate < ranges[j].StartDate
	})

	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = DateRange(r.StartDate, r.EndDate)
	}
	return strings.Join(parts, ", ")
}
