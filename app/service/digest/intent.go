package digest

import "strings"

type Intent int

const (
	IntentTopicQuery Intent = iota
	IntentQuizRequest
	IntentAnswerEvaluation
	IntentOffTopic
)

func (i Intent) String() string {
	switch i {
	case IntentQuizRequest:
		return "quiz_request"
	case IntentAnswerEvaluation:
		return "answer_evaluation"
	case IntentOffTopic:
		return "off_topic"
	default:
		return "topic_query"
	}
}

func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Classify picks the action for one line of input. The checks are ordered:
// "questions" wins over "evaluate"/"answers", everything else is a topic.
// IntentOffTopic is never returned here, it comes from the relevance check.
func Classify(input string) Intent {
	lower := strings.ToLower(input)

	switch {
	case strings.Contains(lower, "questions"):
		return IntentQuizRequest
	case strings.Contains(lower, "evaluate"), strings.Contains(lower, "answers"):
		return IntentAnswerEvaluation
	default:
		return IntentTopicQuery
	}
}
