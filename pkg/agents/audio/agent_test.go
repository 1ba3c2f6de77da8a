package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

type fakeLLM struct {
	resp string
}

func (f *fakeLLM) Complete(ctx context.Context, req llmadapter.Request) (*llmadapter.Response, error) {
	return &llmadapter.Response{Text: f.resp}, nil
}

var screenplayAsset = map[string]any{
	"content": map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"blocks": []any{
					map[string]any{"block_id": "blk_001", "block_type": "dialogue", "character_name": "Ava", "text": "We have to go now."},
				},
			},
		},
	},
}

var storyboardAsset = map[string]any{
	"content": map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"shots": []any{
					map[string]any{"shot_id": "sh_001", "linked_blocks": []any{"blk_001"}},
				},
			},
		},
	},
}

var videoAsset = map[string]any{
	"content": map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id":         "sc_001",
				"scene_clip_asset": map[string]any{"scene_duration_sec": 10.0},
				"shot_segments":    []any{map[string]any{"actual_duration_sec": 10.0}},
			},
		},
	},
}

const creativeFill = `{"scenes": [{"scene_id": "sc_001", "music_mood": "tense, urgent", "ambience_description": "distant sirens"}]}`

func TestRunBuildsSkeletonAndFillsCreative(t *testing.T) {
	a := New(&fakeLLM{resp: creativeFill})
	out, err := a.Run(context.Background(), &Input{Screenplay: screenplayAsset, Storyboard: storyboardAsset, Video: videoAsset}, nil, nil)
	require.NoError(t, err)

	content := out["content"].(map[string]any)
	scenes := content["scenes"].([]any)
	require.Len(t, scenes, 1)
	scene := scenes[0].(map[string]any)

	segments := scene["narration_segments"].([]any)
	require.Len(t, segments, 1)
	seg := segments[0].(map[string]any)
	assert.Equal(t, "We have to go now.", seg["text"])
	assert.Equal(t, "Ava", seg["speaker"])
	assert.Equal(t, "placeholder", seg["audio_asset"].(map[string]any)["uri"])

	assert.Equal(t, "tense, urgent", scene["music_cue"].(map[string]any)["mood"])
	assert.Equal(t, "distant sirens", scene["ambience_bed"].(map[string]any)["description"])

	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 1, metrics["scene_count"])
	assert.Equal(t, 1, metrics["narration_segment_count"])
}

func TestRunRejectsMissingUpstream(t *testing.T) {
	a := New(&fakeLLM{resp: creativeFill})
	_, err := a.Run(context.Background(), &Input{Screenplay: screenplayAsset}, nil, nil)
	assert.Error(t, err)
}

func TestRunRejectsWrongInputType(t *testing.T) {
	a := New(&fakeLLM{resp: creativeFill})
	_, err := a.Run(context.Background(), "bad", nil, nil)
	assert.Error(t, err)
}
