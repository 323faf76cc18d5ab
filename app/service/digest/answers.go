package digest

import (
	"errors"
	"strings"
)

const (
	answersMarker    = "answers:"
	answersSeparator = ", "
)

var ErrMissingAnswersMarker = errors.New("input has no \"answers:\" marker")

// ParseAnswers extracts the comma separated answers that follow the first
// "answers:" marker (any case). Blank tokens are dropped, so "answers: "
// yields an empty list rather than an error.
func ParseAnswers(input string) ([]string, error) {
	idx := indexFold(input, answersMarker)
	if idx < 0 {
		return nil, ErrMissingAnswersMarker
	}

	rest := strings.TrimSpace(input[idx+len(answersMarker):])
	if rest == "" {
		return []string{}, nil
	}

	answers := make([]string, 0, 3)
	for _, token := range strings.Split(rest, answersSeparator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		answers = append(answers, token)
	}

	return answers, nil
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
// The returned offset is a byte position in s.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}

	return -1
}
