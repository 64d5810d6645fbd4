// Package budget provides token budget estimation for prompt assembly.
// Because shiksha supports multiple LLM backends with different tokenizers,
// it uses a conservative character-based heuristic: 1 token ≈ 4 characters
// (English prose). This deliberately under-estimates so there is headroom
// for model-specific overhead.
package budget

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for assembled retrieval
	// context. Conservative enough to leave room for the instruction, the
	// user prompt, and the model's output within an 8k context window.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// FitCount returns how many of texts, taken in order, fit within maxTokens.
// Each entry carries a small per-entry overhead for the page prefix and
// separators added during context assembly. At least one entry is admitted
// even when it alone exceeds the budget, so an oversized top hit still
// produces usable context.
func FitCount(texts []string, maxTokens int) int {
	if maxTokens <= 0 {
		return len(texts)
	}

	total := 0
	for i, t := range texts {
		total += 4 + Estimate(t)
		if total > maxTokens {
			if i == 0 {
				return 1
			}
			return i
		}
	}
	return len(texts)
}
