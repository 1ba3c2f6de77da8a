package screenplay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

type fakeLLM struct{ text string }

func (f *fakeLLM) Complete(ctx context.Context, req llmadapter.Request) (*llmadapter.Response, error) {
	return &llmadapter.Response{Text: f.text}, nil
}

var blueprintContent = map[string]any{
	"locations":     []any{map[string]any{"location_id": "loc_001", "name": "Town Square"}},
	"scene_outline": []any{map[string]any{"scene_id": "sc_001", "order": 1, "location_id": "loc_001", "characters_present": []any{"char_001"}}},
}

const creativeFill = `{
  "title": "The Hero",
  "scenes": [
    {
      "scene_id": "sc_001",
      "interior_exterior": "EXT",
      "summary": "A hero arrives.",
      "estimated_duration": {"seconds": 20, "confidence": 0.8},
      "props_present": [],
      "must_keep_scene_facts": [],
      "wardrobe": [{"character_id": "char_001", "wardrobe": "cloak", "must_keep": []}],
      "blocks": [
        {"block_type": "action", "character_id": "", "character_name": "", "text": "She enters.", "props": [], "wardrobe_character_ids": []},
        {"block_type": "dialogue", "character_id": "char_001", "character_name": "Ann", "text": "Hello.", "props": [], "wardrobe_character_ids": []}
      ],
      "scene_end": {"turn": "she commits", "emotional_shift": "hope"}
    }
  ]
}`

func TestRunFillsSkeletonFromBlueprint(t *testing.T) {
	a := New(&fakeLLM{text: creativeFill})
	out, err := a.Run(context.Background(), &Input{StoryBlueprint: blueprintContent}, nil, nil)
	require.NoError(t, err)

	content := out["content"].(map[string]any)
	assert.Equal(t, "The Hero", content["title"])
	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 1, metrics["scene_count"])
	assert.Equal(t, 1, metrics["dialogue_block_count"])
	assert.Equal(t, 1, metrics["action_block_count"])
}

func TestRunUsesLegacyModeWhenUserTextProvided(t *testing.T) {
	resp := `{"content": {"title": "x", "scenes": []}}`
	a := New(&fakeLLM{text: resp})
	out, err := a.Run(context.Background(), &Input{UserProvidedText: "INT. ROOM - DAY\nAnn enters."}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, out["content"])
}

func TestRunRejectsWrongInputType(t *testing.T) {
	a := New(&fakeLLM{text: creativeFill})
	_, err := a.Run(context.Background(), "bad", nil, nil)
	assert.Error(t, err)
}
