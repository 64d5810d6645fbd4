package ocr

import (
	"regexp"
	"strings"
)

// questionRe matches a question-number line prefix: "1.", "Q2)", "Question 3", etc.
var questionRe = regexp.MustCompile(`^(?:Q(?:uestion)?\.?\s*)?(\d+)[.)]?\s*`)

// ParseAnswers splits recognized answer-sheet text into answers keyed by
// question number. A line starting with a question-number prefix opens a new
// answer; subsequent lines are appended to it until the next prefix. Text
// before the first recognizable question number is dropped.
func ParseAnswers(text string) map[string]string {
	answers := make(map[string]string)
	currentQ := ""
	var current []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if m := questionRe.FindStringSubmatch(line); m != nil && m[1] != "" {
			if currentQ != "" {
				answers[currentQ] = strings.TrimSpace(strings.Join(current, " "))
				current = current[:0]
			}
			currentQ = m[1]
			if rest := strings.TrimSpace(questionRe.ReplaceAllString(line, "")); rest != "" {
				current = append(current, rest)
			}
			continue
		}
		if currentQ != "" && line != "" {
			current = append(current, line)
		}
	}

	if currentQ != "" {
		answers[currentQ] = strings.TrimSpace(strings.Join(current, " "))
	}
	return answers
}
