// Package llmadapter narrows every LLM provider down to the single
// interface sub-agents need — one blocking completion call — and a registry
// keyed by provider name, grounded in the multi-provider dispatch pattern of
// activebook-gllm's service.Agent (one concrete client type per provider,
// selected by config).
package llmadapter

import (
	"context"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
)

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Request is a single non-streaming completion request.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response is the result of a completion call.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the narrow surface every provider adapter implements. Agents
// depend only on this interface, never on a concrete SDK type.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Registry dispatches by provider name to a concrete Client, mirroring
// config.LLMProviderRegistry's shape.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client under provider name.
func (r *Registry) Register(name string, client Client) {
	r.clients[name] = client
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (Client, error) {
	c, ok := r.clients[name]
	if !ok {
		return nil, apperrors.NewAdapterError(name, apperrors.ErrNotFound)
	}
	return c, nil
}
