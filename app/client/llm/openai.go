package llm

import (
	"context"
	"ecodigest/app/config"
	"net/http"

	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(cfg config.LLM) *OpenAIClient {
	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)

	if cfg.APIVersion != "" {
		clientConfig.APIVersion = cfg.APIVersion
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:    model,
			Messages: chatMessages,
		},
	)
	if err != nil {
		return "", oops.In("llm").With("model", model).Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", oops.In("llm").With("model", model).Errorf("no chat completion found")
	}

	return aiResponse.Choices[0].Message.Content, nil
}
