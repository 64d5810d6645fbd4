package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shiksha-ai/shiksha-go/internal/budget"
)

// NoContextSentinel is the context string produced when retrieval returns no
// hits. The generation step always receives a well-formed instruction, and
// the sentinel is shown back to users as provenance, so it reads as prose.
const NoContextSentinel = "No relevant data found in the textbook for this request."

// defaultExcerptLen is the maximum source-excerpt length in bytes before
// ellipsis truncation. Long enough to identify the passage, short enough to
// keep citation lists light.
const defaultExcerptLen = 200

// Source is a trimmed citation entry mirroring one assembled hit.
type Source struct {
	// PageNo is the textbook page the excerpt came from.
	PageNo int `json:"page_no"`
	// Excerpt is the hit text truncated to the excerpt length, with a
	// trailing ellipsis when truncated.
	Excerpt string `json:"excerpt"`
}

// Assembler turns a ranked hit list into the single context string embedded
// verbatim into generation prompts, plus a lightweight sources list for
// citation display. The zero value is not usable; call NewAssembler.
type Assembler struct {
	// excerptLen is the maximum excerpt length for sources.
	excerptLen int
	// maxContextTokens caps the assembled context size; hits beyond the
	// budget are dropped from the context but not re-ranked.
	maxContextTokens int
}

// NewAssembler constructs an Assembler. maxContextTokens of 0 selects
// budget.DefaultMaxContextTokens.
func NewAssembler(maxContextTokens int) *Assembler {
	if maxContextTokens <= 0 {
		maxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Assembler{
		excerptLen:       defaultExcerptLen,
		maxContextTokens: maxContextTokens,
	}
}

// Assemble concatenates the hits' texts in ranked order, each prefixed with
// its page number and separated by blank lines. Formatting is stable and
// human-readable — this exact string is what the user sees as provenance.
// Empty hits yield NoContextSentinel and an empty sources list.
func (a *Assembler) Assemble(hits []Hit) (string, []Source) {
	if len(hits) == 0 {
		return NoContextSentinel, nil
	}

	// Trim to the token budget before formatting; kept hits stay in rank order.
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	if n := budget.FitCount(texts, a.maxContextTokens); n < len(hits) {
		hits = hits[:n]
	}

	var sb strings.Builder
	sources := make([]Source, 0, len(hits))
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "(Page %d): %s", h.PageNo, h.Text)
		sources = append(sources, Source{PageNo: h.PageNo, Excerpt: a.excerpt(h.Text)})
	}

	return sb.String(), sources
}

// excerpt truncates text to the excerpt length, marking truncation with an
// ellipsis. The cut lands on a rune boundary so multi-byte scripts survive
// truncation intact.
func (a *Assembler) excerpt(text string) string {
	if len(text) <= a.excerptLen {
		return text
	}
	end := a.excerptLen
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end] + "..."
}
