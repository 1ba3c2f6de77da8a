package keyframe

import (
	"time"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
	"github.com/storyforge-ai/storyforge/pkg/materialize"
	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

const catalogEntry = "KeyFrameAgent\n" +
	"  - Input: storyboard\n" +
	"  - Output: keyframes (global_anchors + per-scene stability_keyframes + per-shot keyframes)\n" +
	"  - Purpose: Write three-layer image-generation prompts, then materialize them into images."

// NewDescriptor builds KeyFrameAgent's self-describing manifest, grounded
// in original_source/agents/keyframe/descriptor.py. Its ServiceFactories
// wires a mock-backed image_service by default — swap it for a real
// ImageService implementation via BuildEquippedAgent's servicesOverride at
// composition time. retryMaxDelay caps the materializer's capped
// exponential backoff between whole-layer retry attempts.
func NewDescriptor(llm llmadapter.Client, retryMaxDelay time.Duration) *descriptor.AgentDescriptor {
	return &descriptor.AgentDescriptor{
		AgentName:    "KeyFrameAgent",
		AssetKey:     "keyframes",
		AssetType:    "keyframes_package",
		UpstreamKeys: []string{"storyboard"},
		CatalogEntry: catalogEntry,

		AgentFactory:     func(llm any) descriptor.Agent { return New(llm.(llmadapter.Client)) },
		EvaluatorFactory: func() descriptor.Evaluator { return NewEvaluator(llm) },

		BuildInput: func(projectID, draftID string, assets map[string]any, config map[string]any) any {
			sb, _ := assets["storyboard"].(map[string]any)
			imgFmt := defaultImageFormat
			if config != nil {
				if v, ok := config["image_format"].(string); ok && v != "" {
					imgFmt = v
				}
			}
			return &Input{
				ProjectID:   projectID,
				DraftID:     draftID,
				Storyboard:  sb,
				ImageFormat: imgFmt,
			}
		},

		ServiceFactories: map[string]descriptor.ServiceFactory{
			"image_service": func(ctx map[string]any) any {
				return mediaadapter.NewNormalizingImageService(&mediaadapter.MockImageService{}, 2048)
			},
		},
		MaterializerFactory: func(services map[string]any) descriptor.Materializer {
			images := services["image_service"].(mediaadapter.ImageService)
			return materialize.NewKeyframeMaterializer(images, retryMaxDelay)
		},
	}
}
