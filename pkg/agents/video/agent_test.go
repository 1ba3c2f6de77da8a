package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storyboardAsset = map[string]any{
	"content": map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"shots": []any{
					map[string]any{"shot_id": "sh_001", "estimated_duration_sec": 4.0},
					map[string]any{"shot_id": "sh_002", "estimated_duration_sec": 2.0},
				},
			},
		},
	},
}

func TestRunBuildsSkeletonDeterministically(t *testing.T) {
	a := New(nil)
	out, err := a.Run(context.Background(), &Input{Storyboard: storyboardAsset}, nil, nil)
	require.NoError(t, err)

	content := out["content"].(map[string]any)
	scenes := content["scenes"].([]any)
	require.Len(t, scenes, 1)
	scene := scenes[0].(map[string]any)
	segments := scene["shot_segments"].([]any)
	require.Len(t, segments, 2)
	assert.Equal(t, "placeholder", segments[0].(map[string]any)["video_asset"].(map[string]any)["uri"])

	transitions := scene["transition_plan"].([]any)
	require.Len(t, transitions, 1)
	tr := transitions[0].(map[string]any)
	assert.Equal(t, "cut", tr["transition_type"])
	assert.Equal(t, 0.0, tr["duration_sec"])

	sceneClip := scene["scene_clip_asset"].(map[string]any)
	assert.Equal(t, 6.0, sceneClip["scene_duration_sec"])

	final := content["final_video_asset"].(map[string]any)
	assert.Equal(t, 6.0, final["duration_sec"])

	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 1, metrics["scene_count"])
	assert.Equal(t, 2, metrics["shot_segment_count"])
}

func TestRunUsesSoftTransitionPolicy(t *testing.T) {
	a := New(nil)
	out, err := a.Run(context.Background(), &Input{Storyboard: storyboardAsset, TransitionPolicy: "soft"}, nil, nil)
	require.NoError(t, err)

	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	tr := scene["transition_plan"].([]any)[0].(map[string]any)
	assert.Equal(t, "dissolve", tr["transition_type"])
	assert.Equal(t, 0.5, tr["duration_sec"])
}

func TestRunRejectsEmptyStoryboard(t *testing.T) {
	a := New(nil)
	_, err := a.Run(context.Background(), &Input{Storyboard: map[string]any{}}, nil, nil)
	assert.Error(t, err)
}

func TestRunRejectsWrongInputType(t *testing.T) {
	a := New(nil)
	_, err := a.Run(context.Background(), "bad", nil, nil)
	assert.Error(t, err)
}
