package video

import (
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
	"github.com/storyforge-ai/storyforge/pkg/materialize"
	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

const catalogEntry = "VideoAgent\n" +
	"  - Input: storyboard + keyframes\n" +
	"  - Output: video (shot segments, transitions, scene clips, final video)\n" +
	"  - Purpose: Plan and materialize shot clips into assembled scenes and a final cut."

// NewDescriptor builds VideoAgent's self-describing manifest, grounded in
// original_source/agents/video/descriptor.py.
func NewDescriptor(llm llmadapter.Client) *descriptor.AgentDescriptor {
	return &descriptor.AgentDescriptor{
		AgentName:    "VideoAgent",
		AssetKey:     "video",
		AssetType:    "video_package",
		UpstreamKeys: []string{"storyboard", "keyframes"},
		CatalogEntry: catalogEntry,

		AgentFactory:     func(llm any) descriptor.Agent { return New(llm.(llmadapter.Client)) },
		EvaluatorFactory: func() descriptor.Evaluator { return NewEvaluator(llm) },

		BuildInput: func(projectID, draftID string, assets map[string]any, config map[string]any) any {
			sb, _ := assets["storyboard"].(map[string]any)
			kf, _ := assets["keyframes"].(map[string]any)
			fps := 24
			resolution := "1024x576"
			motionPolicy := "moderate"
			transitionPolicy := "cut"
			if config != nil {
				if v, ok := config["fps"].(int); ok && v > 0 {
					fps = v
				}
				if v, ok := config["output_resolution"].(string); ok && v != "" {
					resolution = v
				}
				if v, ok := config["shot_motion_policy"].(string); ok && v != "" {
					motionPolicy = v
				}
				if v, ok := config["transition_policy"].(string); ok && v != "" {
					transitionPolicy = v
				}
			}
			return &Input{
				ProjectID:        projectID,
				DraftID:          draftID,
				Storyboard:       sb,
				Keyframes:        kf,
				FPS:              fps,
				OutputResolution: resolution,
				ShotMotionPolicy: motionPolicy,
				TransitionPolicy: transitionPolicy,
			}
		},

		ServiceFactories: map[string]descriptor.ServiceFactory{
			"video_service": func(ctx map[string]any) any {
				return &mediaadapter.MockVideoService{}
			},
		},
		MaterializerFactory: func(services map[string]any) descriptor.Materializer {
			videos := services["video_service"].(mediaadapter.VideoService)
			return materialize.NewVideoMaterializer(videos)
		},
	}
}
