// Package video implements VideoAgent: turns a storyboard's shots into shot
// segments, scene clips, and a final cut, grounded in
// original_source/agents/video/agent.py.
//
// VideoAgent is fully deterministic — build_skeleton alone produces the
// complete output. There is no creative fill pass: duration, transition
// type, and asset placeholders are all derived from the storyboard and the
// constraints config, leaving nothing for an LLM to write.
package video

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

// Input is VideoAgentInput.
type Input struct {
	ProjectID  string
	DraftID    string
	Storyboard map[string]any
	Keyframes  map[string]any

	FPS              int
	OutputResolution string
	ShotMotionPolicy string
	TransitionPolicy string
}

// Agent is VideoAgent. It carries an LLM client only for interface
// symmetry with the other agent packages — Run never calls it.
type Agent struct {
	LLM llmadapter.Client
}

// New builds a VideoAgent.
func New(llm llmadapter.Client) *Agent {
	return &Agent{LLM: llm}
}

func (a *Agent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	in, ok := input.(*Input)
	if !ok {
		return nil, apperrors.NewValidationError("input", "video agent requires *video.Input")
	}

	content := a.buildSkeleton(in)
	if content == nil {
		return nil, apperrors.NewStructureError("video agent requires a non-empty storyboard with scenes")
	}
	metrics := a.recomputeMetrics(content)

	return map[string]any{"content": content, "metrics": metrics}, nil
}

// buildSkeleton ports VideoAgent.build_skeleton: one ShotSegment per
// storyboard shot, a TransitionPlan between every consecutive pair, and
// scene/final video asset placeholders summing segment durations.
func (a *Agent) buildSkeleton(in *Input) map[string]any {
	sbContent, _ := in.Storyboard["content"].(map[string]any)
	sbScenes := common.SliceAt(sbContent, "scenes")
	if len(sbScenes) == 0 {
		return nil
	}

	fps := in.FPS
	if fps <= 0 {
		fps = 24
	}
	width, height := 1024, 576
	if in.OutputResolution != "" {
		if w, h, ok := parseResolution(in.OutputResolution); ok {
			width, height = w, h
		}
	}
	transitionPolicy := in.TransitionPolicy
	if transitionPolicy == "" {
		transitionPolicy = "cut"
	}

	var scenes []any
	for order, sbScene := range sbScenes {
		sceneID, _ := sbScene["scene_id"].(string)
		shots := common.SliceAt(sbScene, "shots")

		var segments []any
		for _, shot := range shots {
			shotID, _ := shot["shot_id"].(string)
			estDur := 3.0
			if d, ok := shot["estimated_duration_sec"].(float64); ok && d > 0 {
				estDur = d
			}
			segments = append(segments, map[string]any{
				"shot_id":               shotID,
				"order":                 0,
				"estimated_duration_sec": estDur,
				"actual_duration_sec":    estDur,
				"video_asset": map[string]any{
					"asset_id":    fmt.Sprintf("vid_%s", shotID),
					"uri":         "placeholder",
					"width":       width,
					"height":      height,
					"format":      "mp4",
					"duration_sec": estDur,
					"fps":         fps,
				},
			})
		}

		var transitions []any
		for i := 0; i+1 < len(segments); i++ {
			fromID, _ := segments[i].(map[string]any)["shot_id"].(string)
			toID, _ := segments[i+1].(map[string]any)["shot_id"].(string)
			transitionType := "cut"
			duration := 0.0
			if transitionPolicy == "soft" {
				transitionType = "dissolve"
				duration = 0.5
			}
			transitions = append(transitions, map[string]any{
				"from_shot_id": fromID,
				"to_shot_id":   toID,
				"transition_type": transitionType,
				"duration_sec":    duration,
			})
		}

		var sceneDur float64
		for _, seg := range segments {
			sceneDur += seg.(map[string]any)["actual_duration_sec"].(float64)
		}

		scenes = append(scenes, map[string]any{
			"scene_id":       sceneID,
			"order":          order + 1,
			"shot_segments":  segments,
			"transition_plan": transitions,
			"scene_clip_asset": map[string]any{
				"asset_id":           fmt.Sprintf("clip_%s", sceneID),
				"uri":                "placeholder",
				"scene_duration_sec": sceneDur,
				"format":             "mp4",
			},
		})
	}

	var totalDur float64
	for _, scene := range scenes {
		totalDur += scene.(map[string]any)["scene_clip_asset"].(map[string]any)["scene_duration_sec"].(float64)
	}

	return map[string]any{
		"scenes": scenes,
		"final_video_asset": map[string]any{
			"asset_id":     "final_video",
			"uri":          "placeholder",
			"duration_sec": totalDur,
			"format":       "mp4",
			"width":        width,
			"height":       height,
			"fps":          fps,
		},
	}
}

func parseResolution(s string) (int, int, bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return w, h, true
}

func (a *Agent) recomputeMetrics(content map[string]any) map[string]any {
	scenes := common.SliceAt(content, "scenes")
	common.NormalizeOrder(scenes)

	shotCount := 0
	var totalDur float64
	for _, scene := range scenes {
		segments := common.SliceAt(scene, "shot_segments")
		common.NormalizeOrder(segments)
		shotCount += len(segments)
	}
	for _, scene := range scenes {
		if asset, ok := scene["scene_clip_asset"].(map[string]any); ok {
			if d, ok := asset["scene_duration_sec"].(float64); ok {
				totalDur += d
			}
		}
	}

	avg := 0.0
	if shotCount > 0 {
		avg = totalDur / float64(shotCount)
	}

	return map[string]any{
		"scene_count":         len(scenes),
		"shot_segment_count":  shotCount,
		"total_duration_sec":  totalDur,
		"avg_shot_duration_sec": avg,
	}
}
