package keyframe

import (
	"context"
	"fmt"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const (
	creativePassThreshold = 0.65
	assetPassThreshold    = 0.8
)

var creativeDimensions = []common.Dimension{
	{Name: "overall_consistency", Question: "Do the prompt_summaries keep characters, locations, and props visually consistent across global, scene, and shot layers?"},
	{Name: "overall_visual_quality", Question: "Are the prompts detailed and specific enough to produce high-quality, coherent images?"},
}

// Evaluator is KeyframeEvaluator: all three layers, since KeyFrameAgent is
// the first pipeline stage to produce binary (image) assets.
type Evaluator struct {
	LLM llmadapter.Client
}

func NewEvaluator(llm llmadapter.Client) *Evaluator {
	return &Evaluator{LLM: llm}
}

func (e *Evaluator) CheckStructure(output map[string]any, upstream map[string]any) []string {
	var errs []string
	content, _ := output["content"].(map[string]any)
	if content == nil {
		return []string{"output has no content block"}
	}
	globalAnchors, _ := content["global_anchors"].(map[string]any)
	scenes := common.SliceAt(content, "scenes")

	globalIDs := map[string]map[string]bool{
		"characters": common.IDSet(common.SliceAt(globalAnchors, "characters"), "entity_id"),
		"locations":  common.IDSet(common.SliceAt(globalAnchors, "locations"), "entity_id"),
		"props":      common.IDSet(common.SliceAt(globalAnchors, "props"), "entity_id"),
	}
	for _, list := range []string{"characters", "locations", "props"} {
		for _, e := range common.SliceAt(globalAnchors, list) {
			if ps, _ := e["prompt_summary"].(string); ps == "" {
				eid, _ := e["entity_id"].(string)
				errs = append(errs, fmt.Sprintf("global anchor %s %s has empty prompt_summary", list, eid))
			}
		}
	}

	sb, _ := upstream["storyboard"].(map[string]any)
	sbContent, _ := sb["content"].(map[string]any)
	if sbScenes := common.SliceAt(sbContent, "scenes"); len(sbScenes) > 0 {
		want := common.IDSet(sbScenes, "scene_id")
		got := common.IDSet(scenes, "scene_id")
		errs = append(errs, common.CheckIDCoverage("keyframes vs storyboard scenes", want, got)...)

		wantShots := make(map[string]bool)
		for _, sc := range sbScenes {
			for _, sh := range common.SliceAt(sc, "shots") {
				if id, _ := sh["shot_id"].(string); id != "" {
					wantShots[id] = true
				}
			}
		}
		gotShots := make(map[string]bool)
		for _, sc := range scenes {
			for _, sh := range common.SliceAt(sc, "shots") {
				if id, _ := sh["shot_id"].(string); id != "" {
					gotShots[id] = true
				}
			}
		}
		errs = append(errs, common.CheckIDCoverage("keyframes vs storyboard shots", wantShots, gotShots)...)
	}

	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		stab, _ := scene["stability_keyframes"].(map[string]any)
		for _, list := range []string{"characters", "locations", "props"} {
			for _, e := range common.SliceAt(stab, list) {
				eid, _ := e["entity_id"].(string)
				if eid != "" && !globalIDs[list][eid] {
					errs = append(errs, fmt.Sprintf("scene %s stability_keyframes.%s references unknown global anchor %s", sceneID, list, eid))
				}
				if ps, _ := e["prompt_summary"].(string); ps == "" {
					errs = append(errs, fmt.Sprintf("scene %s stability_keyframes.%s %s has empty prompt_summary", sceneID, list, eid))
				}
			}
		}
		shots := common.SliceAt(scene, "shots")
		if len(shots) == 0 {
			errs = append(errs, fmt.Sprintf("scene %s has no shots", sceneID))
		}
		for _, shot := range shots {
			shotID, _ := shot["shot_id"].(string)
			keyframes := common.SliceAt(shot, "keyframes")
			if len(keyframes) == 0 {
				errs = append(errs, fmt.Sprintf("shot %s has no keyframes", shotID))
			}
			for _, kf := range keyframes {
				if ps, _ := kf["prompt_summary"].(string); ps == "" {
					kid, _ := kf["keyframe_id"].(string)
					errs = append(errs, fmt.Sprintf("shot %s keyframe %s has empty prompt_summary", shotID, kid))
				}
			}
		}
	}

	metrics, _ := output["metrics"].(map[string]any)
	shotCount := 0
	kfCount := 0
	for _, scene := range scenes {
		shots := common.SliceAt(scene, "shots")
		shotCount += len(shots)
		for _, shot := range shots {
			kfCount += len(common.SliceAt(shot, "keyframes"))
		}
	}
	errs = append(errs, common.CheckMetric(metrics, "scene_count", len(scenes))...)
	errs = append(errs, common.CheckMetric(metrics, "shot_count", shotCount)...)
	errs = append(errs, common.CheckMetric(metrics, "keyframe_count_total", kfCount)...)

	if len(scenes) == 0 {
		errs = append(errs, "scenes list is empty")
	}
	return errs
}

func (e *Evaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	content, _ := output["content"].(map[string]any)

	prompt := fmt.Sprintf("Keyframe plan:\n%v\n\nScore each dimension from 0.0 to 1.0 and explain briefly:\n", content)
	for _, d := range creativeDimensions {
		prompt += fmt.Sprintf("- %s: %s\n", d.Name, d.Question)
	}
	prompt += "Return JSON: {\"dimensions\": {\"<name>\": {\"score\": float, \"notes\": [string]}}, \"summary\": string}"

	resp, err := e.LLM.Complete(ctx, llmadapter.Request{
		Model:       "claude-sonnet",
		Messages:    []llmadapter.Message{{Role: "user", Content: prompt}},
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return descriptor.CreativeResult{}, err
	}

	scores := common.ParseDimensionScores(resp.Text, creativeDimensions)
	overall := true
	for _, d := range creativeDimensions {
		if scores[d.Name] < creativePassThreshold {
			overall = false
		}
	}
	return descriptor.CreativeResult{Dimensions: scores, OverallPass: overall, Summary: resp.Text}, nil
}

// EvaluateAsset is Layer 3: after materialization, every global anchor,
// scene stability keyframe, and shot keyframe has had its "uri" field
// written by the materializer. This computes what fraction actually
// succeeded.
func (e *Evaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	content, _ := assetData["content"].(map[string]any)
	globalAnchors, _ := content["global_anchors"].(map[string]any)
	scenes := common.SliceAt(content, "scenes")

	total, success := 0, 0
	var errorNotes []string

	tally := func(uri, label string) {
		total++
		switch common.CheckURI(uri) {
		case "success":
			success++
		case "error":
			errorNotes = append(errorNotes, label+" failed to generate")
		}
	}

	for _, list := range []string{"characters", "locations", "props"} {
		for _, e := range common.SliceAt(globalAnchors, list) {
			uri, _ := e["uri"].(string)
			eid, _ := e["entity_id"].(string)
			tally(uri, "global anchor "+eid)
		}
	}
	for _, scene := range scenes {
		stab, _ := scene["stability_keyframes"].(map[string]any)
		for _, list := range []string{"characters", "locations", "props"} {
			for _, e := range common.SliceAt(stab, list) {
				uri, _ := e["uri"].(string)
				eid, _ := e["entity_id"].(string)
				tally(uri, "stability keyframe "+eid)
			}
		}
		for _, shot := range common.SliceAt(scene, "shots") {
			for _, kf := range common.SliceAt(shot, "keyframes") {
				uri, _ := kf["uri"].(string)
				kid, _ := kf["keyframe_id"].(string)
				tally(uri, "shot keyframe "+kid)
			}
		}
	}

	successRate := 1.0
	if total > 0 {
		successRate = float64(success) / float64(total)
	}
	notes := errorNotes
	if len(notes) == 0 {
		notes = []string{fmt.Sprintf("%d/%d images generated", success, total)}
	}

	return descriptor.AssetResult{
		Dimensions: map[string]float64{
			"image_generation_success": successRate,
			"image_format_compliance":  1.0,
			"visual_consistency":       1.0,
		},
		OverallPass: successRate >= assetPassThreshold,
		Summary:     fmt.Sprintf("image generation success rate %.0f%%: %v", successRate*100, notes),
	}, nil
}
