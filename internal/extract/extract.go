package extract

import (
	"regexp"
	"strings"
)

// rule is one entry of the extraction table, ordered most- to least-specific.
// Every rule captures a digit run in group 1.
type rule struct {
	name       string
	pattern    *regexp.Regexp
	stripZeros bool
}

var rules = []rule{
	// Explicit invoice marker ("HD0123", "hd 456").
	{name: "marker", pattern: regexp.MustCompile(`hd\s*0*(\d+)`), stripZeros: true},
	// Localized invoice word ("hoa don 789", "invoice #12").
	{name: "invoice_word", pattern: regexp.MustCompile(`(?:hoa\s*don|hoá\s*đơn|hóa\s*đơn|invoice)\s*[:#]?\s*0*(\d+)`), stripZeros: true},
	// Order-name style reference ("s00042"), digits kept verbatim so the
	// zero padding survives for name lookups.
	{name: "order_ref", pattern: regexp.MustCompile(`\bs(\d{5,})\b`)},
	// Bare digit run, lowest confidence. The amount check downstream is
	// expected to weed out false positives.
	{name: "bare_digits", pattern: regexp.MustCompile(`\b(\d{4,6})\b`)},
}

// Extractor derives candidate invoice numbers from free-text payment content.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract applies the rule table to content and returns candidates in order of
// first appearance, deduplicated. An empty slice means no rule fired; callers
// may then consult a Fallback.
func (e *Extractor) Extract(content string) []string {
	content = strings.ToLower(content)

	var out []string
	seen := map[string]struct{}{}

	for _, r := range rules {
		for _, match := range r.pattern.FindAllStringSubmatch(content, -1) {
			candidate := match[1]
			if r.stripZeros {
				candidate = strings.TrimLeft(candidate, "0")
				if candidate == "" {
					candidate = "0"
				}
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			out = append(out, candidate)
		}
	}

	return out
}

// Dedup collapses duplicates in a candidate list, preserving first appearance.
// Used on fallback output, which is otherwise taken verbatim.
func Dedup(candidates []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
