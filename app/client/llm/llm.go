package llm

import (
	"context"
	"ecodigest/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Completer sends an ordered message list to a chat model and returns the
// text of the first choice.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

const (
	BackendOpenAI    = "openai"
	BackendLangchain = "langchain"
)

func New(di *do.Injector) (Completer, error) {
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.LLM.Backend {
	case BackendOpenAI, "":
		return NewOpenAIClient(cfg.LLM), nil
	case BackendLangchain:
		return NewLangchainClient(cfg.LLM)
	default:
		return nil, oops.In("llm").With("backend", cfg.LLM.Backend).Errorf("unknown llm backend")
	}
}
