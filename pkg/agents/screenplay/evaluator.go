package screenplay

import (
	"context"
	"fmt"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const creativePassThreshold = 0.65

var creativeDimensions = []common.Dimension{
	{Name: "alignment_with_story", Question: "Does the screenplay faithfully realize the story blueprint's intent, arc, and scene goals?"},
	{Name: "character_consistency", Question: "Are character voices distinct and consistent with their profiles, motivations, and flaws?"},
	{Name: "dramatic_flow", Question: "Does the dialogue/action flow naturally? Are scene turns and emotional shifts effective?"},
}

// Evaluator is ScreenplayEvaluator: layers 1 and 2 only, since
// ScreenplayAgent produces no binary assets
// (original_source/agents/screenplay/evaluator.py).
type Evaluator struct {
	LLM llmadapter.Client
}

func NewEvaluator(llm llmadapter.Client) *Evaluator {
	return &Evaluator{LLM: llm}
}

// CheckStructure validates upstream scene-id coverage, block-id uniqueness,
// dialogue completeness, metrics, order continuity, and required content.
func (e *Evaluator) CheckStructure(output map[string]any, upstream map[string]any) []string {
	var errs []string
	content, _ := output["content"].(map[string]any)
	if content == nil {
		return []string{"output has no content block"}
	}
	scenes := common.SliceAt(content, "scenes")

	if bp, ok := upstream["story_blueprint"].(map[string]any); ok {
		bpContent, _ := bp["content"].(map[string]any)
		bpScenes := common.SliceAt(bpContent, "scene_outline")
		if len(bpScenes) > 0 {
			want := common.IDSet(bpScenes, "scene_id")
			got := common.IDSet(scenes, "scene_id")
			errs = append(errs, common.CheckIDCoverage("screenplay vs story_blueprint scenes", want, got)...)
		}
	}

	seenBlockIDs := make(map[string]int)
	var allBlockIDs []string
	for _, scene := range scenes {
		for _, block := range common.SliceAt(scene, "blocks") {
			id, _ := block["block_id"].(string)
			seenBlockIDs[id]++
			allBlockIDs = append(allBlockIDs, id)

			blockType, _ := block["block_type"].(string)
			if blockType == "dialogue" {
				if cid, _ := block["character_id"].(string); cid == "" {
					errs = append(errs, fmt.Sprintf("dialogue block %s missing character_id", id))
				}
				if text, _ := block["text"].(string); text == "" {
					errs = append(errs, fmt.Sprintf("dialogue block %s has empty text", id))
				}
			}
		}
	}
	var dupes []string
	for id, count := range seenBlockIDs {
		if count > 1 {
			dupes = append(dupes, id)
		}
	}
	if len(dupes) > 0 {
		errs = append(errs, fmt.Sprintf("duplicate block_ids: %v", dupes))
	}

	metrics, _ := output["metrics"].(map[string]any)
	dialogue, action := 0, 0
	for _, scene := range scenes {
		for _, block := range common.SliceAt(scene, "blocks") {
			switch block["block_type"] {
			case "dialogue":
				dialogue++
			case "action":
				action++
			}
		}
	}
	errs = append(errs, common.CheckMetric(metrics, "scene_count", len(scenes))...)
	errs = append(errs, common.CheckMetric(metrics, "dialogue_block_count", dialogue)...)
	errs = append(errs, common.CheckMetric(metrics, "action_block_count", action)...)

	errs = append(errs, common.CheckOrderContinuous("scene", common.OrderValues(scenes))...)

	if len(scenes) == 0 {
		errs = append(errs, "scenes list is empty")
	}
	for _, scene := range scenes {
		if len(common.SliceAt(scene, "blocks")) == 0 {
			sceneID, _ := scene["scene_id"].(string)
			errs = append(errs, fmt.Sprintf("scene %s has no blocks", sceneID))
		}
	}
	return errs
}

func (e *Evaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	story, _ := upstream["story_blueprint"]
	content, _ := output["content"].(map[string]any)

	prompt := fmt.Sprintf("Story Blueprint:\n%v\n\nScreenplay:\n%v\n\n"+
		"Score each dimension from 0.0 to 1.0 and explain briefly:\n", story, content)
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
