package story

import (
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const catalogEntry = "StoryAgent\n" +
	"  - Input: draft_idea (text) OR user_story_outline (detailed outline text)\n" +
	"  - Output: story_blueprint (logline, cast, locations, story_arc, scene_outline)\n" +
	"  - Purpose: Produce a structured story blueprint. Structures user outline if provided."

// NewDescriptor builds StoryAgent's self-describing manifest for the
// registry, grounded in original_source/agents/story/descriptor.py. llm is
// closed over by both AgentFactory and EvaluatorFactory, since the
// registry's EvaluatorFactory signature takes no arguments.
func NewDescriptor(llm llmadapter.Client) *descriptor.AgentDescriptor {
	return &descriptor.AgentDescriptor{
		AgentName:    "StoryAgent",
		AssetKey:     "story_blueprint",
		AssetType:    "story_blueprint",
		UpstreamKeys: []string{"draft_idea"},
		CatalogEntry: catalogEntry,
		UserTextKey:  "user_story_outline",

		AgentFactory:     func(llm any) descriptor.Agent { return New(llm.(llmadapter.Client)) },
		EvaluatorFactory: func() descriptor.Evaluator { return NewEvaluator(llm) },

		BuildInput: func(projectID, draftID string, assets map[string]any, config map[string]any) any {
			draftIdea, _ := assets["draft_idea"].(string)
			userText, _ := assets["user_story_outline"].(string)
			return &Input{
				ProjectID:        projectID,
				DraftID:          draftID,
				DraftIdea:        draftIdea,
				UserProvidedText: userText,
			}
		},
		BuildUpstream: func(assets map[string]any) map[string]any {
			draftIdea, _ := assets["draft_idea"].(string)
			return map[string]any{"draft_idea": draftIdea}
		},
	}
}
