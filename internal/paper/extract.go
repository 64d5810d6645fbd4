package paper

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	fencedRe     = regexp.MustCompile("(?s)```\\s*(.*?)```")
	bareArrayRe  = regexp.MustCompile(`(?s)(\[.*\])`)
)

// ExtractQuestions pulls a JSON array of questions out of a model response.
// Models wrap their output unpredictably, so it tries a ```json fence, then
// any fence, then a bare array, then the raw text. A response that yields no
// parseable array returns nil, which callers treat as "fall back to
// deterministic questions".
func ExtractQuestions(response string) []Question {
	candidate := response
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		candidate = m[1]
	} else if m := fencedRe.FindStringSubmatch(response); m != nil {
		candidate = m[1]
	} else if m := bareArrayRe.FindStringSubmatch(response); m != nil {
		candidate = m[1]
	}

	var questions []Question
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &questions); err != nil {
		return nil
	}
	return questions
}
