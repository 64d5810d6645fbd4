// Package paper generates exam question papers from an ingested textbook.
// A free-form teacher prompt ("20 marks question paper on photosynthesis from
// page 10 to 25") is parsed into structured requirements, marks are allocated
// across question sizes, and the model writes the questions from retrieved
// textbook content.
package paper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// DefaultTotalMarks is assumed when the prompt does not state a total.
const DefaultTotalMarks = 20

// Requirements is the structured form of a paper-generation prompt.
type Requirements struct {
	// TotalMarks is the paper total.
	TotalMarks int
	// PageRange restricts retrieval to a page span, when present.
	PageRange *rag.PageFilter
	// Topic is the subject matter phrase extracted from the prompt.
	Topic string
	// Distribution lists the question mark sizes to allocate across.
	Distribution []int
	// Difficulty is the paper difficulty tier (easy, medium, hard).
	Difficulty string
}

var (
	marksRe = regexp.MustCompile(`(?i)(\d+)\s*marks?`)
	topicRe = regexp.MustCompile(`(?i)on\s+(.+?)(?:\s+and\s|$)`)
)

// ParseRequirements extracts paper requirements from a free-form prompt.
// The first "N marks" mention is the total; any further mentions form the
// mark distribution. When no distribution is given, a default tiered on the
// total is used.
func ParseRequirements(prompt string) Requirements {
	req := Requirements{
		TotalMarks: DefaultTotalMarks,
		Difficulty: "medium",
	}

	marks := marksRe.FindAllStringSubmatch(prompt, -1)
	if len(marks) > 0 {
		if n, err := strconv.Atoi(marks[0][1]); err == nil {
			req.TotalMarks = n
		}
	}
	if len(marks) > 1 {
		for _, m := range marks[1:] {
			if n, err := strconv.Atoi(m[1]); err == nil {
				req.Distribution = append(req.Distribution, n)
			}
		}
	}

	req.PageRange = rag.ExtractPageFilter(prompt)

	if m := topicRe.FindStringSubmatch(prompt); m != nil {
		req.Topic = strings.TrimSpace(m[1])
	}

	if len(req.Distribution) == 0 {
		req.Distribution = defaultDistribution(req.TotalMarks)
	}

	return req
}

// defaultDistribution picks question sizes suited to the paper total:
// small papers get short questions only, larger papers add long-form ones.
func defaultDistribution(total int) []int {
	switch {
	case total <= 20:
		return []int{2, 3, 5}
	case total <= 40:
		return []int{2, 3, 5, 10}
	default:
		return []int{2, 3, 5, 10, 15}
	}
}
