package video

import (
	"context"
	"fmt"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const assetPassThreshold = 0.8

var validTransitionTypes = map[string]bool{"cut": true, "dissolve": true, "fade": true, "soft": true}

// Evaluator is VideoEvaluator, grounded in
// original_source/agents/video/evaluator.py. EvaluateCreative is not
// meaningful here — VideoAgent's output is entirely structural, so it
// always passes without calling the LLM.
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

	if sb, ok := upstream["storyboard"].(map[string]any); ok {
		sbContent, _ := sb["content"].(map[string]any)
		if sbScenes := common.SliceAt(sbContent, "scenes"); len(sbScenes) > 0 {
			want := common.IDSet(sbScenes, "scene_id")
			got := common.IDSet(scenes, "scene_id")
			errs = append(errs, common.CheckIDCoverage("video vs storyboard scenes", want, got)...)

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
				for _, seg := range common.SliceAt(sc, "shot_segments") {
					if id, _ := seg["shot_id"].(string); id != "" {
						gotShots[id] = true
					}
				}
			}
			errs = append(errs, common.CheckIDCoverage("video vs storyboard shots", wantShots, gotShots)...)
		}
	}

	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		segments := common.SliceAt(scene, "shot_segments")
		if len(segments) == 0 {
			errs = append(errs, fmt.Sprintf("scene %s has no shot_segments", sceneID))
		}

		shotIDs := make(map[string]bool)
		for _, seg := range segments {
			id, _ := seg["shot_id"].(string)
			shotIDs[id] = true
			if d, _ := seg["actual_duration_sec"].(float64); d <= 0 {
				errs = append(errs, fmt.Sprintf("scene %s shot %s has non-positive actual_duration_sec", sceneID, id))
			}
		}
		orders := common.OrderValues(segments)
		errs = append(errs, common.CheckOrderContinuous(fmt.Sprintf("scene %s shot_segments", sceneID), orders)...)

		for _, tr := range common.SliceAt(scene, "transition_plan") {
			from, _ := tr["from_shot_id"].(string)
			to, _ := tr["to_shot_id"].(string)
			if !shotIDs[from] {
				errs = append(errs, fmt.Sprintf("scene %s transition references unknown from_shot_id %s", sceneID, from))
			}
			if !shotIDs[to] {
				errs = append(errs, fmt.Sprintf("scene %s transition references unknown to_shot_id %s", sceneID, to))
			}
			ttype, _ := tr["transition_type"].(string)
			if !validTransitionTypes[ttype] {
				errs = append(errs, fmt.Sprintf("scene %s transition has invalid transition_type %q", sceneID, ttype))
				continue
			}
			dur, _ := tr["duration_sec"].(float64)
			if ttype == "cut" && dur != 0 {
				errs = append(errs, fmt.Sprintf("scene %s cut transition has non-zero duration_sec", sceneID))
			}
			if ttype != "cut" && dur <= 0 {
				errs = append(errs, fmt.Sprintf("scene %s %s transition has non-positive duration_sec", sceneID, ttype))
			}
		}
	}

	metrics, _ := output["metrics"].(map[string]any)
	shotCount := 0
	for _, scene := range scenes {
		shotCount += len(common.SliceAt(scene, "shot_segments"))
	}
	errs = append(errs, common.CheckMetric(metrics, "scene_count", len(scenes))...)
	errs = append(errs, common.CheckMetric(metrics, "shot_segment_count", shotCount)...)

	if len(scenes) == 0 {
		errs = append(errs, "scenes list is empty")
	}
	return errs
}

// EvaluateCreative always passes: VideoAgent's skeleton is entirely
// structural, so there is nothing creative to score (mirrors the Python
// evaluator's decision not to override evaluate_creative at all).
func (e *Evaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	return descriptor.CreativeResult{
		Dimensions:  map[string]float64{},
		OverallPass: true,
		Summary:     "video output is entirely structural, no creative dimensions to score",
	}, nil
}

// EvaluateAsset is Layer 3: after materialization, shot clips, scene
// clips, and the final video all have their "uri" written.
func (e *Evaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	content, _ := assetData["content"].(map[string]any)
	scenes := common.SliceAt(content, "scenes")

	clipPlanned, clipSuccess, clipError := 0, 0, 0
	sceneClipPlanned, sceneClipSuccess := 0, 0

	for _, scene := range scenes {
		for _, seg := range common.SliceAt(scene, "shot_segments") {
			asset, _ := seg["video_asset"].(map[string]any)
			uri, _ := asset["uri"].(string)
			clipPlanned++
			switch common.CheckURI(uri) {
			case "success":
				clipSuccess++
			case "error":
				clipError++
			}
		}
		clipAsset, _ := scene["scene_clip_asset"].(map[string]any)
		if clipAsset != nil {
			sceneClipPlanned++
			uri, _ := clipAsset["uri"].(string)
			if common.CheckURI(uri) == "success" {
				sceneClipSuccess++
			}
		}
	}

	final, _ := content["final_video_asset"].(map[string]any)
	finalURI, _ := final["uri"].(string)
	finalOK := common.CheckURI(finalURI) == "success"

	clipRate := 1.0
	if clipPlanned > 0 {
		clipRate = float64(clipSuccess) / float64(clipPlanned)
	}
	sceneAssemblyRate := 1.0
	if sceneClipPlanned > 0 {
		sceneAssemblyRate = float64(sceneClipSuccess) / float64(sceneClipPlanned)
	}
	finalScore := 0.0
	if finalOK {
		finalScore = 1.0
	}

	notes := fmt.Sprintf("%d/%d shot clips generated", clipSuccess, clipPlanned)
	if clipError > 0 {
		notes += fmt.Sprintf(", %d failed with errors", clipError)
	}

	return descriptor.AssetResult{
		Dimensions: map[string]float64{
			"clip_generation_success": clipRate,
			"assembly_completeness":   (sceneAssemblyRate + finalScore) / 2.0,
			"duration_compliance":     1.0,
			"motion_quality":          1.0,
		},
		OverallPass: clipRate >= assetPassThreshold,
		Summary: fmt.Sprintf("%s; %d/%d scene clips assembled; final=%v",
			notes, sceneClipSuccess, sceneClipPlanned, finalOK),
	}, nil
}
