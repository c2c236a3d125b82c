// internal/parse/sections.go
package parse

import "strings"

// Section names produced by SplitSections.
const (
	SectionProperty    = "property"
	SectionFinancial   = "financial"
	SectionOwner       = "owner"
	SectionContact     = "contact"
	SectionPortfolio   = "portfolio"
	SectionMotivation  = "motivation"
	SectionForeclosure = "foreclosure"
)

// SectionMap maps a section name to the newline-joined content lines that
// followed its header. It lives only for the duration of one message parse.
type SectionMap map[string]string

// Header markers, checked in order against the upper-cased line. The
// foreclosure alert marker is matched without the bold asterisks because the
// assistant prefixes it with an emoji.
var sectionMarkers = []struct {
	marker  string
	section string
}{
	{"**PROPERTY DETAILS:**", SectionProperty},
	{"**FINANCIAL ANALYSIS:**", SectionFinancial},
	{"**OWNER INFORMATION:**", SectionOwner},
	{"**CONTACT INFORMATION:**", SectionContact},
	{"**OWNER PORTFOLIO:**", SectionPortfolio},
	{"**PORTFOLIO:**", SectionPortfolio},
	{"**MOTIVATION SCORE:**", SectionMotivation},
	{"FORECLOSURE ALERT", SectionForeclosure},
}

func matchHeader(line string) (string, bool) {
	upper := strings.ToUpper(line)
	for _, m := range sectionMarkers {
		if strings.Contains(upper, m.marker) {
			return m.section, true
		}
	}
	return "", false
}

// SplitSections scans text one line at a time, switching the current section
// whenever a header marker appears. Header lines are discarded, lines before
// the first header are dropped, and blank lines are skipped. When no headers
// exist at all the result is empty and callers fall back to treating the
// whole text as a single unlabeled block.
func SplitSections(text string) SectionMap {
	sections := SectionMap{}
	current := ""

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if section, ok := matchHeader(trimmed); ok {
			current = section
			continue
		}
		if trimmed == "" || current == "" {
			continue
		}

		if sections[current] == "" {
			sections[current] = trimmed
		} else {
			sections[current] += "\n" + trimmed
		}
	}

	return sections
}
