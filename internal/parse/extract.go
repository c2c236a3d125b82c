// internal/parse/extract.go
package parse

import (
	"regexp"
	"strings"
	"sync"
)

var (
	labelPatternMu    sync.Mutex
	labelPatternCache = map[string]*regexp.Regexp{}
)

func labelPattern(label string) *regexp.Regexp {
	labelPatternMu.Lock()
	defer labelPatternMu.Unlock()

	if re, ok := labelPatternCache[label]; ok {
		return re
	}
	// Label, optional colon, value until end of line. Case-insensitive.
	re := regexp.MustCompile(`(?im)` + regexp.QuoteMeta(label) + `:?[ \t]*(.+)$`)
	labelPatternCache[label] = re
	return re
}

// ExtractField returns the first non-empty "Label: value" match in text,
// trying each label synonym in order. Synonym order is the only tie-break
// for overlapping labels ("Owner Name" must be listed before "Owner"), so
// callers list the most specific label first. Returns "" when text is empty
// or nothing matches; it never fails.
func ExtractField(text string, labels []string) string {
	if text == "" {
		return ""
	}

	for _, label := range labels {
		m := labelPattern(label).FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		// The optional colon in the pattern can backtrack into the capture
		// when the label has no value; strip any leading colon residue.
		value := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[1]), ":"))
		if value != "" {
			return value
		}
	}

	return ""
}
