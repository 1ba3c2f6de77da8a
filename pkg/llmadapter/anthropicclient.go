package llmadapter

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
)

// AnthropicClient implements Client against the Anthropic Messages API,
// grounded in activebook-gllm's service/anthropic.go provider dispatch
// (non-streaming variant — sub-agents consume one finished response, not a
// token stream).
type AnthropicClient struct {
	api anthropic.Client
}

// NewAnthropicClient builds a client with the given API key and optional
// custom base URL.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{api: anthropic.NewClient(opts...)}
}

// Complete issues a single non-streaming message completion.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		System:    system,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("anthropic", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Response{
		Text:         text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}
