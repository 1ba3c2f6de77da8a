package story

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, req llmadapter.Request) (*llmadapter.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llmadapter.Response{Text: f.text}, nil
}

const validBlueprint = `{
  "content": {
    "logline": "A hero rises.",
    "cast": [{"character_id": "char_001", "name": "Ann", "role": "protagonist"}],
    "locations": [{"location_id": "loc_001", "name": "Town"}],
    "story_arc": [{"step_id": "arc_001", "order": 1, "step_type": "setup"}],
    "scene_outline": [
      {"scene_id": "sc_001", "order": 1, "linked_step_id": "arc_001", "location_id": "loc_001", "characters_present": ["char_001"]}
    ]
  }
}`

func TestRunParsesValidBlueprintAndRecomputesMetrics(t *testing.T) {
	a := New(&fakeLLM{text: validBlueprint})
	out, err := a.Run(context.Background(), &Input{DraftIdea: "a hero's journey"}, nil, nil)
	require.NoError(t, err)

	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 1, metrics["character_count"])
	assert.Equal(t, 1, metrics["location_count"])
	assert.Equal(t, 1, metrics["scene_count"])
}

func TestRunRejectsWrongInputType(t *testing.T) {
	a := New(&fakeLLM{text: validBlueprint})
	_, err := a.Run(context.Background(), "not an Input", nil, nil)
	assert.Error(t, err)
}

func TestRunRejectsNonJSONOutput(t *testing.T) {
	a := New(&fakeLLM{text: "not json"})
	_, err := a.Run(context.Background(), &Input{DraftIdea: "x"}, nil, nil)
	assert.Error(t, err)
}

func TestStructuringModeUsedWhenUserTextProvided(t *testing.T) {
	a := New(&fakeLLM{text: validBlueprint})
	_, err := a.Run(context.Background(), &Input{UserProvidedText: "An outline..."}, nil, nil)
	require.NoError(t, err)
}
