package digest

import (
	"context"
	"ecodigest/app/client/llm"
	"fmt"
	"strings"
)

// Assistant is the language model capability the dispatcher needs.
type Assistant interface {
	// Classify reports whether text is about an environmental topic.
	Classify(ctx context.Context, model, text string) (bool, error)
	// Converse returns the completion for messages.
	Converse(ctx context.Context, model string, messages []llm.Message) (string, error)
}

type completerAssistant struct {
	completer llm.Completer
}

func NewAssistant(completer llm.Completer) Assistant {
	return &completerAssistant{completer: completer}
}

func (a *completerAssistant) Classify(ctx context.Context, model, text string) (bool, error) {
	answer, err := a.completer.Complete(ctx, model, []llm.Message{
		llm.System(relevancePrompt),
		llm.User(text),
	})
	if err != nil {
		return false, fmt.Errorf("relevance check: %w", err)
	}

	return IsAffirmative(answer), nil
}

func (a *completerAssistant) Converse(ctx context.Context, model string, messages []llm.Message) (string, error) {
	reply, err := a.completer.Complete(ctx, model, messages)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	return reply, nil
}

// IsAffirmative accepts only a bare "yes", ignoring case and surrounding space.
func IsAffirmative(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "yes"
}
