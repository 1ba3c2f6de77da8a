package screenplay

import (
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const catalogEntry = "ScreenplayAgent\n" +
	"  - Input: story_blueprint OR user_screenplay (raw screenplay text)\n" +
	"  - Output: screenplay (scenes -> blocks with dialogue, action, narration)\n" +
	"  - Purpose: Produce a structured screenplay JSON. Structures user text if provided."

// NewDescriptor builds ScreenplayAgent's self-describing manifest,
// grounded in original_source/agents/screenplay/descriptor.py.
func NewDescriptor(llm llmadapter.Client) *descriptor.AgentDescriptor {
	return &descriptor.AgentDescriptor{
		AgentName:    "ScreenplayAgent",
		AssetKey:     "screenplay",
		AssetType:    "screenplay",
		UpstreamKeys: []string{"story_blueprint"},
		CatalogEntry: catalogEntry,
		UserTextKey:  "user_screenplay",

		AgentFactory:     func(llm any) descriptor.Agent { return New(llm.(llmadapter.Client)) },
		EvaluatorFactory: func() descriptor.Evaluator { return NewEvaluator(llm) },

		BuildInput: func(projectID, draftID string, assets map[string]any, config map[string]any) any {
			bp, _ := assets["story_blueprint"].(map[string]any)
			content, _ := bp["content"].(map[string]any)
			userText, _ := assets["user_screenplay"].(string)

			targetDuration := 60.0
			language := "en"
			if config != nil {
				if v, ok := config["target_total_duration_sec"].(float64); ok {
					targetDuration = v
				}
				if v, ok := config["language"].(string); ok && v != "" {
					language = v
				}
			}

			return &Input{
				ProjectID:         projectID,
				DraftID:           draftID,
				StoryBlueprint:    content,
				TargetDurationSec: targetDuration,
				Language:          language,
				UserProvidedText:  userText,
			}
		},
	}
}
