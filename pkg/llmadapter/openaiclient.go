package llmadapter

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
)

// OpenAIClient implements Client against the OpenAI chat completions API,
// grounded in activebook-gllm's service/openai.go provider dispatch.
type OpenAIClient struct {
	api *openai.Client
}

// NewOpenAIClient builds a client with the given API key and optional
// custom base URL (empty string uses the default).
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg)}
}

// Complete issues a single non-streaming chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewAdapterError("openai", apperrors.ErrNotFound)
	}
	return &Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
