package llmadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
)

type stubClient struct{ text string }

func (s stubClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return &Response{Text: s.text}, nil
}

func TestRegistryDispatchesByProviderName(t *testing.T) {
	r := NewRegistry()
	r.Register("openai", stubClient{text: "hi from openai"})

	c, err := r.Get("openai")
	require.NoError(t, err)
	resp, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "hi from openai", resp.Text)
}

func TestRegistryGetUnknownProviderIsAdapterError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.True(t, apperrors.IsAdapterError(err))
}
