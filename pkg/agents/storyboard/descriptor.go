package storyboard

import (
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const catalogEntry = "StoryboardAgent\n" +
	"  - Input: screenplay\n" +
	"  - Output: storyboard (scenes -> shots with camera, visual_goal, keyframe_plan)\n" +
	"  - Purpose: Translate screenplay into visual shot-by-shot planning."

// NewDescriptor builds StoryboardAgent's self-describing manifest,
// grounded in original_source/agents/storyboard/descriptor.py.
func NewDescriptor(llm llmadapter.Client) *descriptor.AgentDescriptor {
	return &descriptor.AgentDescriptor{
		AgentName:    "StoryboardAgent",
		AssetKey:     "storyboard",
		AssetType:    "storyboard",
		UpstreamKeys: []string{"screenplay"},
		CatalogEntry: catalogEntry,

		AgentFactory:     func(llm any) descriptor.Agent { return New(llm.(llmadapter.Client)) },
		EvaluatorFactory: func() descriptor.Evaluator { return NewEvaluator(llm) },

		BuildInput: func(projectID, draftID string, assets map[string]any, config map[string]any) any {
			sp, _ := assets["screenplay"].(map[string]any)
			language := "en"
			maxShots := 12
			if config != nil {
				if v, ok := config["language"].(string); ok && v != "" {
					language = v
				}
				if v, ok := config["max_shots_per_scene"].(int); ok && v > 0 {
					maxShots = v
				}
			}
			return &Input{
				ProjectID:        projectID,
				DraftID:          draftID,
				Screenplay:       sp,
				MaxShotsPerScene: maxShots,
				Language:         language,
			}
		},
	}
}
