package keyframe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

// fakeLLM picks its canned response by inspecting the prompt's content,
// since the keyframe agent fires the global and per-scene fill calls
// concurrently — call order is not deterministic.
type fakeLLM struct {
	globalFillResp string
	sceneFillResp  string
}

func newFakeLLM(global, scene string) *fakeLLM {
	return &fakeLLM{globalFillResp: global, sceneFillResp: scene}
}

func (f *fakeLLM) Complete(ctx context.Context, req llmadapter.Request) (*llmadapter.Response, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	if strings.HasPrefix(prompt, "Write Layer 1") {
		return &llmadapter.Response{Text: f.globalFillResp}, nil
	}
	return &llmadapter.Response{Text: f.sceneFillResp}, nil
}

var storyboardAsset = map[string]any{
	"meta": map[string]any{"asset_id": "sb_1"},
	"content": map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"scene_consistency_pack": map[string]any{
					"location_lock":   map[string]any{"location_id": "loc_001"},
					"character_locks": []any{map[string]any{"character_id": "char_001"}},
					"props_lock":      []any{map[string]any{"prop_id": "prop_001", "prop_name": "lantern"}},
				},
				"shots": []any{
					map[string]any{
						"shot_id":       "sh_001",
						"keyframe_plan": map[string]any{"keyframe_count": 1},
					},
				},
			},
		},
	},
}

const globalFill = `{
  "characters": [{"entity_id": "char_001", "prompt_summary": "a brave knight"}],
  "locations": [{"entity_id": "loc_001", "prompt_summary": "a dusty street"}],
  "props": [{"entity_id": "prop_001", "prompt_summary": "a lit lantern"}]
}`

const sceneFill = `{
  "scene_id": "sc_001",
  "stability_keyframes": {
    "characters": [{"entity_id": "char_001", "prompt_summary": "knight at dusk"}],
    "locations": [{"entity_id": "loc_001", "prompt_summary": "street at dusk"}],
    "props": [{"entity_id": "prop_001", "prompt_summary": "lantern glowing"}]
  },
  "shots": [
    {"shot_id": "sh_001", "keyframes": [{"keyframe_id": "kf_001", "prompt_summary": "knight lifts the lantern"}]}
  ]
}`

func TestRunFillsSkeletonFromStoryboard(t *testing.T) {
	a := New(newFakeLLM(globalFill, sceneFill))
	out, err := a.Run(context.Background(), &Input{Storyboard: storyboardAsset}, nil, nil)
	require.NoError(t, err)

	content := out["content"].(map[string]any)
	globalAnchors := content["global_anchors"].(map[string]any)
	chars := globalAnchors["characters"].([]any)
	require.Len(t, chars, 1)
	assert.Equal(t, "a brave knight", chars[0].(map[string]any)["prompt_summary"])
	assert.Equal(t, "placeholder", chars[0].(map[string]any)["uri"])

	scenes := content["scenes"].([]any)
	require.Len(t, scenes, 1)
	scene := scenes[0].(map[string]any)
	shots := scene["shots"].([]any)
	require.Len(t, shots, 1)
	keyframes := shots[0].(map[string]any)["keyframes"].([]any)
	require.Len(t, keyframes, 1)
	assert.Equal(t, "knight lifts the lantern", keyframes[0].(map[string]any)["prompt_summary"])

	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 1, metrics["scene_count"])
	assert.Equal(t, 1, metrics["shot_count"])
	assert.Equal(t, 1, metrics["keyframe_count_total"])
}

func TestRunRejectsEmptyStoryboard(t *testing.T) {
	a := New(newFakeLLM(globalFill, sceneFill))
	_, err := a.Run(context.Background(), &Input{Storyboard: map[string]any{}}, nil, nil)
	assert.Error(t, err)
}

func TestRunRejectsWrongInputType(t *testing.T) {
	a := New(newFakeLLM(globalFill, sceneFill))
	_, err := a.Run(context.Background(), "bad", nil, nil)
	assert.Error(t, err)
}
