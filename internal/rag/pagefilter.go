package rag

import (
	"regexp"
	"strconv"
)

// pageRangeRE matches explicit page-range phrases like "page 3 to 5" or
// "pages 3-5". Free text that mentions no page range yields no filter.
var pageRangeRE = regexp.MustCompile(`(?i)pages?\s*(\d+)\s*(?:to|-)\s*(\d+)`)

// ExtractPageFilter scans free text for an explicit page-range phrase and
// returns the inclusive filter, or nil when none is found. This is a
// best-effort intent parser, not exact NLU.
//
// The first captured number is always the lower bound and the second the
// upper, regardless of which is numerically larger: "page 9 to 3" produces
// the inverted range (9, 3), which matches nothing. Deliberately not
// normalized — an inverted request silently returning content from the
// swapped range would be more surprising than returning nothing.
func ExtractPageFilter(prompt string) *PageFilter {
	m := pageRangeRE.FindStringSubmatch(prompt)
	if m == nil {
		return nil
	}

	lower, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	upper, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}

	return &PageFilter{Lower: lower, Upper: upper}
}
