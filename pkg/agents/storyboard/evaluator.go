package storyboard

import (
	"context"
	"fmt"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const creativePassThreshold = 0.65

var creativeDimensions = []common.Dimension{
	{Name: "coverage_of_blocks", Question: "Do the shots cover all important screenplay blocks? Are any key moments missed?"},
	{Name: "visual_coherence", Question: "Are shot types, camera angles, and visual goals consistent within each scene?"},
	{Name: "pacing_fit", Question: "Do shot durations and shot count create appropriate pacing? Not too fast, not too slow?"},
}

// Evaluator is StoryboardEvaluator: layers 1 and 2 only, since
// StoryboardAgent produces no binary assets itself (the keyframe images it
// plans for are materialized downstream by KeyframeAgent).
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
	scenes := common.SliceAt(content, "scenes")

	sp, _ := upstream["screenplay"].(map[string]any)
	spContent, _ := sp["content"].(map[string]any)

	if spScenes := common.SliceAt(spContent, "scenes"); len(spScenes) > 0 {
		want := common.IDSet(spScenes, "scene_id")
		got := common.IDSet(scenes, "scene_id")
		errs = append(errs, common.CheckIDCoverage("storyboard vs screenplay scenes", want, got)...)
	}

	seenShotIDs := make(map[string]int)
	for _, scene := range scenes {
		for _, shot := range common.SliceAt(scene, "shots") {
			id, _ := shot["shot_id"].(string)
			seenShotIDs[id]++
		}
	}
	var dupes []string
	for id, count := range seenShotIDs {
		if count > 1 {
			dupes = append(dupes, id)
		}
	}
	if len(dupes) > 0 {
		errs = append(errs, fmt.Sprintf("duplicate shot_ids: %v", dupes))
	}

	if spScenes := common.SliceAt(spContent, "scenes"); len(spScenes) > 0 {
		allBlockIDs := make(map[string]bool)
		for _, spScene := range spScenes {
			for _, block := range common.SliceAt(spScene, "blocks") {
				if id, _ := block["block_id"].(string); id != "" {
					allBlockIDs[id] = true
				}
			}
		}
		for _, scene := range scenes {
			for _, shot := range common.SliceAt(scene, "shots") {
				shotID, _ := shot["shot_id"].(string)
				for _, bid := range common.SliceOfStrings(shot["linked_blocks"]) {
					if bid != "" && !allBlockIDs[bid] {
						errs = append(errs, fmt.Sprintf("shot %s references unknown block %s", shotID, bid))
					}
				}
			}
		}
	}

	metrics, _ := output["metrics"].(map[string]any)
	shotTotal := 0
	for _, scene := range scenes {
		shotTotal += len(common.SliceAt(scene, "shots"))
	}
	errs = append(errs, common.CheckMetric(metrics, "scene_count", len(scenes))...)
	errs = append(errs, common.CheckMetric(metrics, "shot_count_total", shotTotal)...)

	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		errs = append(errs, common.CheckOrderContinuous(
			fmt.Sprintf("scene %s shot", sceneID),
			common.OrderValues(common.SliceAt(scene, "shots")))...)
	}

	for _, scene := range scenes {
		for _, shot := range common.SliceAt(scene, "shots") {
			kf, _ := shot["keyframe_plan"].(map[string]any)
			if common.AsInt(kf["keyframe_count"]) < 1 {
				shotID, _ := shot["shot_id"].(string)
				errs = append(errs, fmt.Sprintf("shot %s has keyframe_count < 1", shotID))
			}
		}
	}

	if len(scenes) == 0 {
		errs = append(errs, "scenes list is empty")
	}
	for _, scene := range scenes {
		if len(common.SliceAt(scene, "shots")) == 0 {
			sceneID, _ := scene["scene_id"].(string)
			errs = append(errs, fmt.Sprintf("scene %s has no shots", sceneID))
		}
	}
	return errs
}

func (e *Evaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	sp, _ := upstream["screenplay"]
	content, _ := output["content"].(map[string]any)

	prompt := fmt.Sprintf("Screenplay:\n%v\n\nStoryboard:\n%v\n\n"+
		"Score each dimension from 0.0 to 1.0 and explain briefly:\n", sp, content)
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

func (e *Evaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	return descriptor.AssetResult{OverallPass: true, Summary: "no binary assets to evaluate"}, nil
}
