package audio

import (
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
	"github.com/storyforge-ai/storyforge/pkg/materialize"
	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

const catalogEntry = "AudioAgent\n" +
	"  - Input: screenplay + storyboard + video\n" +
	"  - Output: audio_package (narration, music, ambience, scene mix, final audio)\n" +
	"  - Purpose: Plan and materialize audio aligned with video timing."

// NewDescriptor builds AudioAgent's self-describing manifest, grounded in
// original_source/dynamic-task-stack/.../audio/descriptor.py.
func NewDescriptor(llm llmadapter.Client) *descriptor.AgentDescriptor {
	return &descriptor.AgentDescriptor{
		AgentName:    "AudioAgent",
		AssetKey:     "audio",
		AssetType:    "audio_package",
		UpstreamKeys: []string{"screenplay", "storyboard", "video"},
		CatalogEntry: catalogEntry,

		AgentFactory:     func(llm any) descriptor.Agent { return New(llm.(llmadapter.Client)) },
		EvaluatorFactory: func() descriptor.Evaluator { return NewEvaluator(llm) },

		BuildInput: func(projectID, draftID string, assets map[string]any, config map[string]any) any {
			sp, _ := assets["screenplay"].(map[string]any)
			sb, _ := assets["storyboard"].(map[string]any)
			vid, _ := assets["video"].(map[string]any)
			return &Input{
				ProjectID:  projectID,
				DraftID:    draftID,
				Screenplay: sp,
				Storyboard: sb,
				Video:      vid,
			}
		},

		ServiceFactories: map[string]descriptor.ServiceFactory{
			"audio_service": func(ctx map[string]any) any {
				return &mediaadapter.MockAudioService{}
			},
		},
		MaterializerFactory: func(services map[string]any) descriptor.Materializer {
			audios := services["audio_service"].(mediaadapter.AudioService)
			return materialize.NewAudioMaterializer(audios)
		},
	}
}
