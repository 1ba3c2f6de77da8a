package story

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOutput(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(validBlueprint), &out))
	content := out["content"].(map[string]any)
	out["metrics"] = map[string]any{
		"character_count": len(content["cast"].([]any)),
		"location_count":  len(content["locations"].([]any)),
		"scene_count":     len(content["scene_outline"].([]any)),
	}
	return out
}

func TestCheckStructurePassesOnValidOutput(t *testing.T) {
	e := NewEvaluator(nil)
	errs := e.CheckStructure(validOutput(t), nil)
	assert.Empty(t, errs)
}

func TestCheckStructureCatchesUnknownLocationReference(t *testing.T) {
	e := NewEvaluator(nil)
	out := validOutput(t)
	content := out["content"].(map[string]any)
	scenes := content["scene_outline"].([]any)
	scenes[0].(map[string]any)["location_id"] = "loc_999"

	errs := e.CheckStructure(out, nil)
	assert.NotEmpty(t, errs)
}

func TestCheckStructureCatchesEmptyLogline(t *testing.T) {
	e := NewEvaluator(nil)
	out := validOutput(t)
	out["content"].(map[string]any)["logline"] = ""

	errs := e.CheckStructure(out, nil)
	assert.Contains(t, errs, "logline is empty")
}

func TestEvaluateCreativeScoresFromLLMResponse(t *testing.T) {
	resp := `{"dimensions": {"alignment": {"score": 0.9}, "dramatic": {"score": 0.8}, "coherence": {"score": 0.7}}, "summary": "good"}`
	e := NewEvaluator(&fakeLLM{text: resp})

	result, err := e.EvaluateCreative(context.Background(), validOutput(t), map[string]any{"draft_idea": "x"})
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	assert.Equal(t, 0.9, result.Dimensions["alignment"])
}

func TestEvaluateCreativeFailsBelowThreshold(t *testing.T) {
	resp := `{"dimensions": {"alignment": {"score": 0.1}, "dramatic": {"score": 0.8}, "coherence": {"score": 0.7}}, "summary": "weak"}`
	e := NewEvaluator(&fakeLLM{text: resp})

	result, err := e.EvaluateCreative(context.Background(), validOutput(t), nil)
	require.NoError(t, err)
	assert.False(t, result.OverallPass)
}

func TestEvaluateAssetAlwaysPasses(t *testing.T) {
	e := NewEvaluator(nil)
	result, err := e.EvaluateAsset(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
}
