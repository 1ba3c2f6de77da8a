package story

import (
	"context"
	"fmt"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

// creativePassThreshold mirrors BaseEvaluator.CREATIVE_PASS_THRESHOLD.
const creativePassThreshold = 0.65

var creativeDimensions = []common.Dimension{
	{Name: "alignment", Question: "Does the blueprint faithfully expand the draft idea?"},
	{Name: "dramatic", Question: "Clear conflict, stakes, turning points, satisfying arc?"},
	{Name: "coherence", Question: "Characters, locations, scenes internally consistent and well-connected?"},
}

// Evaluator is StoryEvaluator: layers 1 and 2 only, since StoryAgent
// produces no binary assets (original_source/agents/story/evaluator.py).
type Evaluator struct {
	LLM llmadapter.Client
}

// NewEvaluator wires an Evaluator around an LLM client for its creative
// assessment layer, matching evaluator_factory=StoryEvaluator.
func NewEvaluator(llm llmadapter.Client) *Evaluator {
	return &Evaluator{LLM: llm}
}

// CheckStructure runs the rule-based structural validation: ID referential
// integrity, metrics consistency, order continuity, required content.
func (e *Evaluator) CheckStructure(output map[string]any, upstream map[string]any) []string {
	var errs []string
	content, _ := output["content"].(map[string]any)
	if content == nil {
		return []string{"output has no content block"}
	}

	charIDs := common.IDSet(common.SliceAt(content, "cast"), "character_id")
	locIDs := common.IDSet(common.SliceAt(content, "locations"), "location_id")
	arcIDs := common.IDSet(common.SliceAt(content, "story_arc"), "step_id")

	for _, scene := range common.SliceAt(content, "scene_outline") {
		sceneID, _ := scene["scene_id"].(string)
		if locID, _ := scene["location_id"].(string); locID != "" && !locIDs[locID] {
			errs = append(errs, fmt.Sprintf("scene %s references unknown location %s", sceneID, locID))
		}
		if stepID, _ := scene["linked_step_id"].(string); stepID != "" && !arcIDs[stepID] {
			errs = append(errs, fmt.Sprintf("scene %s references unknown arc step %s", sceneID, stepID))
		}
		for _, cid := range common.SliceOfStrings(scene["characters_present"]) {
			if !charIDs[cid] {
				errs = append(errs, fmt.Sprintf("scene %s references unknown character %s", sceneID, cid))
			}
		}
	}

	metrics, _ := output["metrics"].(map[string]any)
	errs = append(errs, common.CheckMetric(metrics, "character_count", len(common.SliceAt(content, "cast")))...)
	errs = append(errs, common.CheckMetric(metrics, "location_count", len(common.SliceAt(content, "locations")))...)
	errs = append(errs, common.CheckMetric(metrics, "scene_count", len(common.SliceAt(content, "scene_outline")))...)

	errs = append(errs, common.CheckOrderContinuous("story_arc", common.OrderValues(common.SliceAt(content, "story_arc")))...)
	errs = append(errs, common.CheckOrderContinuous("scene_outline", common.OrderValues(common.SliceAt(content, "scene_outline")))...)

	if s, _ := content["logline"].(string); s == "" {
		errs = append(errs, "logline is empty")
	}
	if len(common.SliceAt(content, "cast")) == 0 {
		errs = append(errs, "cast is empty")
	}
	if len(common.SliceAt(content, "scene_outline")) == 0 {
		errs = append(errs, "scene_outline is empty")
	}
	if len(common.SliceAt(content, "story_arc")) == 0 {
		errs = append(errs, "story_arc is empty")
	}
	return errs
}

// EvaluateCreative runs the LLM-based dimension scoring. Only called after
// CheckStructure passes (descriptor.Evaluator contract, spec.md §4.6).
func (e *Evaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	draftIdea, _ := upstream["draft_idea"].(string)
	content, _ := output["content"].(map[string]any)

	prompt := fmt.Sprintf(
		"Draft idea: %s\n\nStory Blueprint:\n%v\n\n"+
			"Score each dimension from 0.0 to 1.0 and explain briefly:\n", draftIdea, content)
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
	return descriptor.CreativeResult{
		Dimensions:  scores,
		OverallPass: overall,
		Summary:     resp.Text,
	}, nil
}

// EvaluateAsset is a no-op pass: StoryAgent's output is never materialized
// into binary assets, so layer 3 never runs for it.
func (e *Evaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	return descriptor.AssetResult{OverallPass: true, Summary: "no binary assets to evaluate"}, nil
}
