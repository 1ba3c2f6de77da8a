package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVideoOutput() map[string]any {
	content := map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"order":    1,
				"shot_segments": []any{
					map[string]any{
						"shot_id": "sh_001", "order": 1, "actual_duration_sec": 4.0,
						"video_asset": map[string]any{"asset_id": "clip_sh_001", "uri": "placeholder", "format": "mp4"},
					},
					map[string]any{
						"shot_id": "sh_002", "order": 2, "actual_duration_sec": 2.0,
						"video_asset": map[string]any{"asset_id": "clip_sh_002", "uri": "placeholder", "format": "mp4"},
					},
				},
				"transition_plan": []any{
					map[string]any{"from_shot_id": "sh_001", "to_shot_id": "sh_002", "transition_type": "cut", "duration_sec": 0.0},
				},
				"scene_clip_asset": map[string]any{"asset_id": "clip_sc_001", "uri": "placeholder", "format": "mp4"},
			},
		},
		"final_video_asset": map[string]any{"asset_id": "final_video", "uri": "placeholder", "format": "mp4"},
	}
	return map[string]any{
		"content": content,
		"metrics": map[string]any{"scene_count": 1, "shot_segment_count": 2},
	}
}

func validStoryboardUpstream() map[string]any {
	return map[string]any{
		"storyboard": map[string]any{
			"content": map[string]any{
				"scenes": []any{
					map[string]any{
						"scene_id": "sc_001",
						"shots":    []any{map[string]any{"shot_id": "sh_001"}, map[string]any{"shot_id": "sh_002"}},
					},
				},
			},
		},
	}
}

func TestCheckStructurePassesOnValidVideo(t *testing.T) {
	e := NewEvaluator(nil)
	errs := e.CheckStructure(validVideoOutput(), validStoryboardUpstream())
	assert.Empty(t, errs)
}

func TestCheckStructureCatchesInvalidTransitionDuration(t *testing.T) {
	e := NewEvaluator(nil)
	out := validVideoOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	tr := scene["transition_plan"].([]any)[0].(map[string]any)
	tr["duration_sec"] = 1.0 // cut transitions must be 0

	errs := e.CheckStructure(out, validStoryboardUpstream())
	assert.NotEmpty(t, errs)
}

func TestCheckStructureCatchesMissingStoryboardShot(t *testing.T) {
	e := NewEvaluator(nil)
	upstream := map[string]any{
		"storyboard": map[string]any{
			"content": map[string]any{
				"scenes": []any{
					map[string]any{
						"scene_id": "sc_001",
						"shots": []any{
							map[string]any{"shot_id": "sh_001"}, map[string]any{"shot_id": "sh_002"}, map[string]any{"shot_id": "sh_003"},
						},
					},
				},
			},
		},
	}
	errs := e.CheckStructure(validVideoOutput(), upstream)
	assert.NotEmpty(t, errs)
}

func TestEvaluateCreativeAlwaysPasses(t *testing.T) {
	e := NewEvaluator(nil)
	result, err := e.EvaluateCreative(context.Background(), validVideoOutput(), nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
}

func TestEvaluateAssetComputesSuccessRate(t *testing.T) {
	e := NewEvaluator(nil)
	out := validVideoOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	segments := scene["shot_segments"].([]any)
	segments[0].(map[string]any)["video_asset"].(map[string]any)["uri"] = "/scratch/clip_sh_001.mp4"

	result, err := e.EvaluateAsset(context.Background(), out, nil)
	require.NoError(t, err)
	assert.False(t, result.OverallPass) // only 1 of 2 clips generated
	assert.Less(t, result.Dimensions["clip_generation_success"], 1.0)
}

func TestEvaluateAssetAllGeneratedPasses(t *testing.T) {
	e := NewEvaluator(nil)
	out := validVideoOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	for _, seg := range scene["shot_segments"].([]any) {
		seg.(map[string]any)["video_asset"].(map[string]any)["uri"] = "/scratch/x.mp4"
	}
	scene["scene_clip_asset"].(map[string]any)["uri"] = "/scratch/scene.mp4"
	content["final_video_asset"].(map[string]any)["uri"] = "/scratch/final.mp4"

	result, err := e.EvaluateAsset(context.Background(), out, nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	assert.Equal(t, 1.0, result.Dimensions["clip_generation_success"])
	assert.Equal(t, 1.0, result.Dimensions["assembly_completeness"])
}
