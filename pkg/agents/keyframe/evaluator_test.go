package keyframe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKeyframesOutput() map[string]any {
	content := map[string]any{
		"global_anchors": map[string]any{
			"characters": []any{map[string]any{"entity_id": "char_001", "prompt_summary": "a knight", "uri": "placeholder"}},
			"locations":  []any{map[string]any{"entity_id": "loc_001", "prompt_summary": "a street", "uri": "placeholder"}},
			"props":      []any{map[string]any{"entity_id": "prop_001", "prompt_summary": "a lantern", "uri": "placeholder"}},
		},
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"stability_keyframes": map[string]any{
					"characters": []any{map[string]any{"entity_id": "char_001", "prompt_summary": "knight at dusk", "uri": "placeholder"}},
					"locations":  []any{map[string]any{"entity_id": "loc_001", "prompt_summary": "street at dusk", "uri": "placeholder"}},
					"props":      []any{map[string]any{"entity_id": "prop_001", "prompt_summary": "glowing lantern", "uri": "placeholder"}},
				},
				"shots": []any{
					map[string]any{
						"shot_id":   "sh_001",
						"keyframes": []any{map[string]any{"keyframe_id": "kf_001", "prompt_summary": "knight lifts lantern", "uri": "placeholder"}},
					},
				},
			},
		},
	}
	return map[string]any{
		"content": content,
		"metrics": map[string]any{"scene_count": 1, "shot_count": 1, "keyframe_count_total": 1},
	}
}

func validStoryboardUpstream() map[string]any {
	return map[string]any{
		"storyboard": map[string]any{
			"content": map[string]any{
				"scenes": []any{
					map[string]any{
						"scene_id": "sc_001",
						"shots":    []any{map[string]any{"shot_id": "sh_001"}},
					},
				},
			},
		},
	}
}

func TestCheckStructurePassesOnValidKeyframes(t *testing.T) {
	e := NewEvaluator(nil)
	errs := e.CheckStructure(validKeyframesOutput(), validStoryboardUpstream())
	assert.Empty(t, errs)
}

func TestCheckStructureCatchesEmptyPromptSummary(t *testing.T) {
	e := NewEvaluator(nil)
	out := validKeyframesOutput()
	content := out["content"].(map[string]any)
	ga := content["global_anchors"].(map[string]any)
	chars := ga["characters"].([]any)
	chars[0].(map[string]any)["prompt_summary"] = ""

	errs := e.CheckStructure(out, validStoryboardUpstream())
	assert.NotEmpty(t, errs)
}

func TestCheckStructureCatchesMissingUpstreamScene(t *testing.T) {
	e := NewEvaluator(nil)
	out := validKeyframesOutput()
	upstream := map[string]any{
		"storyboard": map[string]any{
			"content": map[string]any{
				"scenes": []any{
					map[string]any{"scene_id": "sc_001", "shots": []any{map[string]any{"shot_id": "sh_001"}}},
					map[string]any{"scene_id": "sc_002", "shots": []any{}},
				},
			},
		},
	}
	errs := e.CheckStructure(out, upstream)
	assert.NotEmpty(t, errs)
}

func TestEvaluateCreativeScoresFromLLMResponse(t *testing.T) {
	resp := `{"dimensions": {"overall_consistency": {"score": 0.9}, "overall_visual_quality": {"score": 0.8}}, "summary": "good"}`
	e := NewEvaluator(&fakeLLM{globalFillResp: resp, sceneFillResp: resp})
	result, err := e.EvaluateCreative(context.Background(), validKeyframesOutput(), nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
}

func TestEvaluateAssetComputesSuccessRate(t *testing.T) {
	e := NewEvaluator(nil)
	out := validKeyframesOutput()
	content := out["content"].(map[string]any)
	ga := content["global_anchors"].(map[string]any)
	ga["characters"].([]any)[0].(map[string]any)["uri"] = "/scratch/img_char_001_global.png"

	result, err := e.EvaluateAsset(context.Background(), out, nil)
	require.NoError(t, err)
	assert.False(t, result.OverallPass) // only 1 of 7 images generated
	assert.Less(t, result.Dimensions["image_generation_success"], 1.0)
}

func TestEvaluateAssetAllGeneratedPasses(t *testing.T) {
	e := NewEvaluator(nil)
	out := validKeyframesOutput()
	content := out["content"].(map[string]any)
	markAllGenerated(content)

	result, err := e.EvaluateAsset(context.Background(), out, nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	assert.Equal(t, 1.0, result.Dimensions["image_generation_success"])
}

func markAllGenerated(content map[string]any) {
	ga := content["global_anchors"].(map[string]any)
	for _, list := range []string{"characters", "locations", "props"} {
		for _, e := range ga[list].([]any) {
			e.(map[string]any)["uri"] = "/scratch/x.png"
		}
	}
	for _, scene := range content["scenes"].([]any) {
		sc := scene.(map[string]any)
		stab := sc["stability_keyframes"].(map[string]any)
		for _, list := range []string{"characters", "locations", "props"} {
			for _, e := range stab[list].([]any) {
				e.(map[string]any)["uri"] = "/scratch/x.png"
			}
		}
		for _, shot := range sc["shots"].([]any) {
			for _, kf := range shot.(map[string]any)["keyframes"].([]any) {
				kf.(map[string]any)["uri"] = "/scratch/x.png"
			}
		}
	}
}
