package screenplay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScreenplayOutput() map[string]any {
	content := map[string]any{
		"title": "x",
		"scenes": []any{
			map[string]any{
				"scene_id": "sc_001",
				"order":    1,
				"blocks": []any{
					map[string]any{"block_id": "b_001", "block_type": "action", "text": "She enters."},
					map[string]any{"block_id": "b_002", "block_type": "dialogue", "character_id": "char_001", "text": "Hi."},
				},
			},
		},
	}
	return map[string]any{
		"content": content,
		"metrics": map[string]any{"scene_count": 1, "dialogue_block_count": 1, "action_block_count": 1},
	}
}

func TestCheckStructurePassesOnValidScreenplay(t *testing.T) {
	e := NewEvaluator(nil)
	errs := e.CheckStructure(validScreenplayOutput(), nil)
	assert.Empty(t, errs)
}

func TestCheckStructureCatchesMissingDialogueCharacterID(t *testing.T) {
	e := NewEvaluator(nil)
	out := validScreenplayOutput()
	scenes := out["content"].(map[string]any)["scenes"].([]any)
	blocks := scenes[0].(map[string]any)["blocks"].([]any)
	blocks[1].(map[string]any)["character_id"] = ""

	errs := e.CheckStructure(out, nil)
	assert.NotEmpty(t, errs)
}

func TestCheckStructureCatchesDuplicateBlockIDs(t *testing.T) {
	e := NewEvaluator(nil)
	out := validScreenplayOutput()
	scenes := out["content"].(map[string]any)["scenes"].([]any)
	blocks := scenes[0].(map[string]any)["blocks"].([]any)
	blocks[1].(map[string]any)["block_id"] = "b_001"

	errs := e.CheckStructure(out, nil)
	assert.NotEmpty(t, errs)
}

func TestEvaluateCreativeScoresFromLLMResponse(t *testing.T) {
	resp := `{"dimensions": {"alignment_with_story": {"score": 0.9}, "character_consistency": {"score": 0.8}, "dramatic_flow": {"score": 0.75}}, "summary": "good"}`
	e := NewEvaluator(&fakeLLM{text: resp})
	result, err := e.EvaluateCreative(context.Background(), validScreenplayOutput(), nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
}
