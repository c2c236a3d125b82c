// internal/parse/segment.go
package parse

import (
	"regexp"
	"strings"
)

// Block is one property-sized chunk of an assistant message. Ordinal
// reflects the order blocks appear in the source text.
type Block struct {
	Ordinal int    `json:"ordinal"`
	Raw     string `json:"raw"`
}

// minBlockLength rejects spurious numbered-line matches in prose ("3. and
// then call the owner") that carry no real property content.
const minBlockLength = 20

var numberedLineRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)

// Strong single-property indicators. A message with none of these renders as
// plain chat text.
var propertyIndicators = []string{
	"Address:",
	"Owner:",
	"ARV:",
	"Equity:",
}

// Cities the assistant's market covers; a bare city mention is treated as a
// property indicator.
var knownCities = []string{
	"Phoenix",
	"Scottsdale",
	"Mesa",
	"Tempe",
	"Chandler",
	"Glendale",
	"Gilbert",
	"Peoria",
}

// Segment splits an assistant message into property blocks. It first tries
// numbered-list detection, then single-property detection, and returns an
// empty slice when neither applies. The scan is a single deterministic pass;
// calling Segment twice on the same text yields identical blocks.
func Segment(text string) []Block {
	if blocks := segmentNumbered(text); len(blocks) > 0 {
		return blocks
	}
	if isSingleProperty(text) {
		return []Block{{Ordinal: 1, Raw: strings.TrimSpace(text)}}
	}
	return nil
}

func segmentNumbered(text string) []Block {
	matches := numberedLineRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var blocks []Block
	for i, m := range matches {
		start := m[1] // content begins after the "N. " prefix
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		raw := strings.TrimSpace(text[start:end])
		if len(raw) < minBlockLength {
			continue
		}
		blocks = append(blocks, Block{Ordinal: len(blocks) + 1, Raw: raw})
	}

	return blocks
}

func isSingleProperty(text string) bool {
	for _, indicator := range propertyIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "absentee") {
		return true
	}
	for _, city := range knownCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			return true
		}
	}

	return false
}
