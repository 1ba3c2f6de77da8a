package storyboard

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

var screenplayAsset = map[string]any{
	"meta": map[string]any{"asset_id": "sp_1"},
	"content": map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"heading":  map[string]any{"location_id": "loc_001", "time_of_day": "DAY"},
				"blocks": []any{
					map[string]any{"block_id": "b_001", "character_id": "char_001"},
				},
			},
		},
	},
}

const creativeFill = `{
  "scenes": [
    {
      "scene_id": "sc_001",
      "estimated_duration": {"seconds": 15, "confidence": 0.8},
      "location_lock": {"environment_notes": ["dusty street"]},
      "character_locks": [{"character_id": "char_001", "identity_notes": ["brave"], "wardrobe_notes": ["cloak"], "must_keep": []}],
      "props_lock": [{"prop_name": "lantern", "must_keep": ["keep lit"]}],
      "style_lock": {"global_style_notes": ["noir"], "must_avoid": ["cartoonish"]},
      "shots": [
        {"linked_blocks": ["b_001"], "estimated_duration_sec": 4, "shot_type": "wide", "camera": {"angle": "low", "movement": "static", "framing_notes": "wide shot"}, "visual_goal": "establish", "action_focus": "entry", "characters_in_frame": ["char_001"], "props_in_frame": ["lantern"], "keyframe_plan": {"keyframe_count": 1, "keyframe_notes": []}}
      ]
    }
  ]
}`

func TestRunFillsSkeletonFromScreenplay(t *testing.T) {
	a := New(&fakeLLM{text: creativeFill})
	out, err := a.Run(context.Background(), &Input{Screenplay: screenplayAsset}, nil, nil)
	require.NoError(t, err)

	content := out["content"].(map[string]any)
	scenes := content["scenes"].([]any)
	require.Len(t, scenes, 1)
	shots := scenes[0].(map[string]any)["shots"].([]any)
	require.Len(t, shots, 1)
	assert.Equal(t, "sh_001", shots[0].(map[string]any)["shot_id"])

	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 1, metrics["scene_count"])
	assert.Equal(t, 1, metrics["shot_count_total"])
}

func TestRunRejectsEmptyScreenplay(t *testing.T) {
	a := New(&fakeLLM{text: creativeFill})
	_, err := a.Run(context.Background(), &Input{Screenplay: map[string]any{}}, nil, nil)
	assert.Error(t, err)
}

func TestRunRejectsWrongInputType(t *testing.T) {
	a := New(&fakeLLM{text: creativeFill})
	_, err := a.Run(context.Background(), "bad", nil, nil)
	assert.Error(t, err)
}
