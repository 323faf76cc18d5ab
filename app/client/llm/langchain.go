package llm

import (
	"context"
	"ecodigest/app/config"
	"net/http"

	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangchainClient talks to the same Azure deployment through langchaingo.
type LangchainClient struct {
	model llms.Model
}

func NewLangchainClient(cfg config.LLM) (*LangchainClient, error) {
	model, err := lcopenai.New(
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithBaseURL(cfg.Endpoint),
		lcopenai.WithAPIType(lcopenai.APITypeAzure),
		lcopenai.WithAPIVersion(cfg.APIVersion),
		lcopenai.WithModel(cfg.Model),
		lcopenai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		lcopenai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, oops.In("llm").Errorf("failed to create langchain client: %w", err)
	}

	return &LangchainClient{model: model}, nil
}

func (c *LangchainClient) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithModel(model))
	if err != nil {
		return "", oops.In("llm").With("model", model).Errorf("failed to generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", oops.In("llm").With("model", model).Errorf("no content choices found")
	}

	return resp.Choices[0].Content, nil
}

func messageType(role Role) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
