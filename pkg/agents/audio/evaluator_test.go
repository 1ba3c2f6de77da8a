package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAudioOutput() map[string]any {
	content := map[string]any{
		"scenes": []any{
			map[string]any{
				"scene_id":           "sc_001",
				"order":              1,
				"scene_duration_sec": 10.0,
				"narration_segments": []any{
					map[string]any{
						"segment_id": "narr_001", "linked_block_id": "blk_001", "speaker": "Ava", "text": "We have to go now.",
						"start_sec": 0.0, "end_sec": 3.0,
						"audio_asset": map[string]any{"asset_id": "aud_narr_sc_001_01", "uri": "placeholder", "format": "wav"},
					},
				},
				"music_cue": map[string]any{
					"cue_id": "music_sc_001", "scene_id": "sc_001", "mood": "tense", "start_sec": 0.0, "end_sec": 10.0,
					"audio_asset": map[string]any{"asset_id": "aud_music_sc_001", "uri": "placeholder"},
				},
				"ambience_bed": map[string]any{
					"ambience_id": "amb_sc_001", "scene_id": "sc_001", "description": "sirens", "start_sec": 0.0, "end_sec": 10.0,
					"audio_asset": map[string]any{"asset_id": "aud_amb_sc_001", "uri": "placeholder"},
				},
				"mix": map[string]any{
					"mix_id": "mix_sc_001", "scene_id": "sc_001", "duration_sec": 10.0,
					"audio_asset": map[string]any{"asset_id": "aud_mix_sc_001", "uri": "placeholder"},
				},
			},
		},
		"final_audio_asset": map[string]any{"asset_id": "aud_final", "uri": "placeholder"},
	}
	return map[string]any{
		"content": content,
		"metrics": map[string]any{"scene_count": 1, "narration_segment_count": 1},
	}
}

func validUpstream() map[string]any {
	return map[string]any{
		"video": map[string]any{
			"content": map[string]any{"scenes": []any{map[string]any{"scene_id": "sc_001"}}},
		},
		"screenplay": map[string]any{
			"content": map[string]any{
				"scenes": []any{map[string]any{"blocks": []any{map[string]any{"block_id": "blk_001"}}}},
			},
		},
	}
}

func TestCheckStructurePassesOnValidAudio(t *testing.T) {
	e := NewEvaluator(nil)
	errs := e.CheckStructure(validAudioOutput(), validUpstream())
	assert.Empty(t, errs)
}

func TestCheckStructureCatchesNarrationExceedingSceneDuration(t *testing.T) {
	e := NewEvaluator(nil)
	out := validAudioOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	seg := scene["narration_segments"].([]any)[0].(map[string]any)
	seg["end_sec"] = 15.0

	errs := e.CheckStructure(out, validUpstream())
	assert.NotEmpty(t, errs)
}

func TestCheckStructureCatchesUnknownLinkedBlock(t *testing.T) {
	e := NewEvaluator(nil)
	out := validAudioOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	seg := scene["narration_segments"].([]any)[0].(map[string]any)
	seg["linked_block_id"] = "blk_999"

	errs := e.CheckStructure(out, validUpstream())
	assert.NotEmpty(t, errs)
}

func TestEvaluateAssetComputesSuccessRate(t *testing.T) {
	e := NewEvaluator(nil)
	out := validAudioOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	scene["narration_segments"].([]any)[0].(map[string]any)["audio_asset"].(map[string]any)["uri"] = "/scratch/x.wav"

	result, err := e.EvaluateAsset(context.Background(), out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Dimensions["tts_generation_success"])
	assert.Equal(t, 0.0, result.Dimensions["music_generation_success"]) // music still placeholder
	assert.False(t, result.OverallPass)
}

func TestEvaluateAssetAllGeneratedPasses(t *testing.T) {
	e := NewEvaluator(nil)
	out := validAudioOutput()
	content := out["content"].(map[string]any)
	scene := content["scenes"].([]any)[0].(map[string]any)
	scene["narration_segments"].([]any)[0].(map[string]any)["audio_asset"].(map[string]any)["uri"] = "/scratch/narr.wav"
	scene["music_cue"].(map[string]any)["audio_asset"].(map[string]any)["uri"] = "/scratch/music.wav"
	scene["ambience_bed"].(map[string]any)["audio_asset"].(map[string]any)["uri"] = "/scratch/amb.wav"
	scene["mix"].(map[string]any)["audio_asset"].(map[string]any)["uri"] = "/scratch/mix.wav"
	content["final_audio_asset"].(map[string]any)["uri"] = "/scratch/final.wav"

	result, err := e.EvaluateAsset(context.Background(), out, nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	assert.Equal(t, 1.0, result.Dimensions["tts_generation_success"])
	assert.Equal(t, 1.0, result.Dimensions["music_generation_success"])
	assert.Equal(t, 1.0, result.Dimensions["mix_completeness"])
}
