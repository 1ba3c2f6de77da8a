package materialize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

func sampleAssetDict() map[string]any {
	return map[string]any{
		"content": map[string]any{
			"global_anchors": map[string]any{
				"characters": []any{
					map[string]any{"entity_id": "char_lena", "prompt_summary": "a woman with red hair"},
				},
				"locations": []any{
					map[string]any{"entity_id": "loc_cafe", "prompt_summary": "a cozy cafe interior"},
				},
				"props": []any{},
			},
			"scenes": []any{
				map[string]any{
					"scene_id": "scene_1",
					"stability_keyframes": map[string]any{
						"characters": []any{
							map[string]any{"entity_id": "char_lena", "prompt_summary": "lena sitting at a table"},
						},
						"locations": []any{
							map[string]any{"entity_id": "loc_cafe", "prompt_summary": "the cafe, afternoon light"},
						},
						"props": []any{},
					},
					"shots": []any{
						map[string]any{
							"shot_id": "shot_1",
							"keyframes": []any{
								map[string]any{
									"prompt_summary": "close up of lena smiling",
									"constraints_applied": map[string]any{
										"characters_in_frame": []any{"char_lena"},
										"props_in_frame":      []any{},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestMaterializeProducesAssetsForEveryLayer(t *testing.T) {
	m := NewKeyframeMaterializer(&mediaadapter.MockImageService{}, time.Millisecond)
	assets, err := m.Materialize(context.Background(), "proj_1", sampleAssetDict(), map[string]any{})
	require.NoError(t, err)

	var global, scene, shot int
	for _, a := range assets {
		switch {
		case a.SysID == "img_char_lena_global" || a.SysID == "img_loc_cafe_global":
			global++
		case a.SysID == "img_char_lena_scene_1" || a.SysID == "img_loc_cafe_scene_1":
			scene++
		case a.SysID == "img_shot_1_kf_01":
			shot++
		}
	}
	assert.Equal(t, 2, global)
	assert.Equal(t, 2, scene)
	assert.Equal(t, 1, shot)
}

func TestMaterializeRetriesThroughTransientFailures(t *testing.T) {
	m := NewKeyframeMaterializer(&mediaadapter.MockImageService{FailFirstN: 2}, time.Millisecond)
	assets, err := m.Materialize(context.Background(), "proj_1", sampleAssetDict(), map[string]any{})
	require.NoError(t, err)
	assert.NotEmpty(t, assets)
}

func TestMaterializeFailsShotWithNoReferences(t *testing.T) {
	dict := sampleAssetDict()
	content := dict["content"].(map[string]any)
	scenes := content["scenes"].([]any)
	scene := scenes[0].(map[string]any)
	shots := scene["shots"].([]any)
	shot := shots[0].(map[string]any)
	keyframes := shot["keyframes"].([]any)
	kf := keyframes[0].(map[string]any)
	kf["constraints_applied"] = map[string]any{
		"characters_in_frame": []any{"char_unmatched"},
		"props_in_frame":      []any{},
	}
	// Drop the scene's location too: its scene anchor is otherwise always a reference.
	scene["stability_keyframes"].(map[string]any)["locations"] = []any{}

	m := NewKeyframeMaterializer(&mediaadapter.MockImageService{}, time.Millisecond)
	_, err := m.Materialize(context.Background(), "proj_1", dict, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scene-anchor references")
}

func TestInjectReferenceImagesShortCircuitsGlobalGeneration(t *testing.T) {
	dict := sampleAssetDict()
	mock := &mediaadapter.MockImageService{}
	m := NewKeyframeMaterializer(mock, time.Millisecond)
	assets := map[string]any{
		"reference_images": []any{
			map[string]any{
				"label":       "lena",
				"entity_type": "character",
				"image_bytes": []byte("preexisting-lena-bytes"),
			},
		},
	}
	produced, err := m.Materialize(context.Background(), "proj_1", dict, assets)
	require.NoError(t, err)

	var found bool
	for _, a := range produced {
		if a.SysID == "img_char_lena_global" {
			found = true
			assert.Equal(t, []byte("preexisting-lena-bytes"), a.Data)
		}
	}
	assert.True(t, found)
}
