// Package audio implements AudioAgent: narration, music, and ambience
// aligned with video timing, grounded in
// original_source/dynamic-task-stack/src/assistant/agent_core/audio/agent.py.
//
// Three-layer alignment: semantic source is the screenplay block (what to
// say), timing comes from the storyboard's block-to-shot links (when to
// say it), and the hard boundary is the video scene's duration (max
// length). Skeleton-first: narration text/speaker/timing are entirely
// deterministic: the LLM is only asked to fill music_cue.mood and
// ambience_bed.description per scene, in a single call.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

// Input is AudioAgentInput.
type Input struct {
	ProjectID  string
	DraftID    string
	Screenplay map[string]any
	Storyboard map[string]any
	Video      map[string]any
}

// Agent is AudioAgent.
type Agent struct {
	LLM   llmadapter.Client
	Model string
}

// New builds an AudioAgent.
func New(llm llmadapter.Client) *Agent {
	return &Agent{LLM: llm, Model: "claude-sonnet"}
}

func (a *Agent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	in, ok := input.(*Input)
	if !ok {
		return nil, apperrors.NewValidationError("input", "audio agent requires *audio.Input")
	}

	content := a.buildSkeleton(in)
	if content == nil {
		return nil, apperrors.NewStructureError("audio agent requires screenplay, storyboard, and video with at least one scene")
	}

	if err := a.fillCreative(ctx, content); err != nil {
		return nil, err
	}
	metrics := a.recomputeMetrics(content)

	return map[string]any{"content": content, "metrics": metrics}, nil
}

// buildSkeleton ports AudioAgent.build_skeleton.
func (a *Agent) buildSkeleton(in *Input) map[string]any {
	spContent, _ := in.Screenplay["content"].(map[string]any)
	sbContent, _ := in.Storyboard["content"].(map[string]any)
	vidContent, _ := in.Video["content"].(map[string]any)
	vidScenes := common.SliceAt(vidContent, "scenes")
	if spContent == nil || sbContent == nil || vidContent == nil || len(vidScenes) == 0 {
		return nil
	}

	blockToShot := make(map[string]string)
	for _, sbScene := range common.SliceAt(sbContent, "scenes") {
		for _, shot := range common.SliceAt(sbScene, "shots") {
			shotID, _ := shot["shot_id"].(string)
			for _, bid := range common.SliceOfStrings(shot["linked_blocks"]) {
				blockToShot[bid] = shotID
			}
		}
	}

	spSceneByID := make(map[string]map[string]any)
	for _, s := range common.SliceAt(spContent, "scenes") {
		sid, _ := s["scene_id"].(string)
		spSceneByID[sid] = s
	}

	narrCounter := 0
	var scenes []any

	for order, vs := range vidScenes {
		sceneID, _ := vs["scene_id"].(string)
		clip := mapOf(vs["scene_clip_asset"])
		sceneDur, _ := clip["scene_duration_sec"].(float64)
		if sceneDur <= 0 {
			for _, seg := range common.SliceAt(vs, "shot_segments") {
				d, _ := seg["actual_duration_sec"].(float64)
				sceneDur += d
			}
		}

		spScene := spSceneByID[sceneID]

		type rawEntry struct {
			blockID, shotID, speaker, text string
			estDur                         float64
		}
		var raw []rawEntry
		var totalRaw float64
		for _, block := range common.SliceAt(spScene, "blocks") {
			blockType, _ := block["block_type"].(string)
			if blockType != "dialogue" && blockType != "narration" && blockType != "monologue" {
				continue
			}
			blockID, _ := block["block_id"].(string)
			text, _ := block["text"].(string)
			speaker, _ := block["character_name"].(string)
			if speaker == "" && blockType == "narration" {
				speaker = "Narrator"
			}
			shotID := blockToShot[blockID]
			wordCount := 0
			if text != "" {
				wordCount = len(strings.Fields(text))
			}
			estDur := float64(wordCount) / 2.5
			if estDur < 1.0 {
				estDur = 1.0
			}
			raw = append(raw, rawEntry{blockID, shotID, speaker, text, estDur})
			totalRaw += estDur
		}

		scale := 1.0
		if sceneDur > 0 && totalRaw > sceneDur && len(raw) > 0 {
			scale = sceneDur / totalRaw
		}

		var segments []any
		currentSec := 0.0
		for _, e := range raw {
			narrCounter++
			scaledDur := round2(e.estDur * scale)
			if scaledDur < 0.1 {
				scaledDur = 0.1
			}
			start := round2(currentSec)
			end := round2(currentSec + scaledDur)
			if sceneDur > 0 && end > sceneDur {
				end = round2(sceneDur)
			}

			segments = append(segments, map[string]any{
				"segment_id":      fmt.Sprintf("narr_%03d", narrCounter),
				"linked_block_id": e.blockID,
				"linked_shot_id":  e.shotID,
				"speaker":         e.speaker,
				"text":            e.text,
				"start_sec":       start,
				"end_sec":         end,
				"audio_asset": map[string]any{
					"asset_id":     fmt.Sprintf("aud_narr_%s_%02d", sceneID, narrCounter),
					"uri":          "placeholder",
					"format":       "wav",
					"duration_sec": round2(end - start),
					"sample_rate":  44100,
				},
			})
			currentSec = end
		}

		scenes = append(scenes, map[string]any{
			"scene_id":            sceneID,
			"order":               order + 1,
			"scene_duration_sec":  sceneDur,
			"narration_segments":  segments,
			"music_cue": map[string]any{
				"cue_id":    fmt.Sprintf("music_%s", sceneID),
				"scene_id":  sceneID,
				"mood":      "",
				"start_sec": 0.0,
				"end_sec":   sceneDur,
				"audio_asset": map[string]any{
					"asset_id":     fmt.Sprintf("aud_music_%s", sceneID),
					"uri":          "placeholder",
					"format":       "wav",
					"duration_sec": sceneDur,
					"sample_rate":  44100,
				},
			},
			"ambience_bed": map[string]any{
				"ambience_id": fmt.Sprintf("amb_%s", sceneID),
				"scene_id":    sceneID,
				"description": "",
				"start_sec":   0.0,
				"end_sec":     sceneDur,
				"audio_asset": map[string]any{
					"asset_id":     fmt.Sprintf("aud_amb_%s", sceneID),
					"uri":          "placeholder",
					"format":       "wav",
					"duration_sec": sceneDur,
					"sample_rate":  44100,
				},
			},
			"mix": map[string]any{
				"mix_id":       fmt.Sprintf("mix_%s", sceneID),
				"scene_id":     sceneID,
				"duration_sec": sceneDur,
				"audio_asset": map[string]any{
					"asset_id":     fmt.Sprintf("aud_mix_%s", sceneID),
					"uri":          "placeholder",
					"format":       "wav",
					"duration_sec": sceneDur,
					"sample_rate":  44100,
				},
			},
		})
	}

	var totalDur float64
	for _, s := range scenes {
		totalDur += s.(map[string]any)["scene_duration_sec"].(float64)
	}

	return map[string]any{
		"scenes": scenes,
		"final_audio_asset": map[string]any{
			"asset_id":     "aud_final",
			"uri":          "placeholder",
			"format":       "wav",
			"duration_sec": totalDur,
			"sample_rate":  44100,
		},
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func mapOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

// fillCreative builds one compact prompt covering every scene's music mood
// and ambience description, then merges the single LLM response back in.
func (a *Agent) fillCreative(ctx context.Context, content map[string]any) error {
	scenes := common.SliceAt(content, "scenes")
	prompt := a.buildCreativePrompt(scenes)

	resp, err := a.LLM.Complete(ctx, llmadapter.Request{
		Model: a.Model,
		Messages: []llmadapter.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		return apperrors.NewAdapterError("audio-creative-fill", err)
	}

	var parsed struct {
		Scenes []struct {
			SceneID             string `json:"scene_id"`
			MusicMood           string `json:"music_mood"`
			AmbienceDescription string `json:"ambience_description"`
		} `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(common.ExtractJSON(resp.Text)), &parsed); err != nil {
		return apperrors.NewAdapterError("audio-creative-fill", fmt.Errorf("invalid JSON from LLM: %w", err))
	}

	bySceneID := make(map[string]struct{ mood, ambience string })
	for _, s := range parsed.Scenes {
		bySceneID[s.SceneID] = struct{ mood, ambience string }{s.MusicMood, s.AmbienceDescription}
	}
	for _, scene := range scenes {
		sid, _ := scene["scene_id"].(string)
		fill := bySceneID[sid]
		scene["music_cue"].(map[string]any)["mood"] = fill.mood
		scene["ambience_bed"].(map[string]any)["description"] = fill.ambience
	}
	return nil
}

const systemPrompt = "You are AudioAgent, an audio design specialist for film.\n" +
	"Follow the instructions in the user message exactly."

func (a *Agent) buildCreativePrompt(scenes []map[string]any) string {
	var entries []string
	for _, scene := range scenes {
		sid, _ := scene["scene_id"].(string)
		entries = append(entries, fmt.Sprintf(`    {"scene_id": "%s", "music_mood": "<FILL>", "ambience_description": "<FILL>"}`, sid))
	}
	template := "{\n  \"scenes\": [\n" + strings.Join(entries, ",\n") + "\n  ]\n}"

	return "The system has pre-built all structural fields (IDs, timing, narration text/speaker, " +
		"audio asset placeholders). Your ONLY job is to write the music mood and ambience " +
		"description for each scene.\n\n" +
		"=== RULES ===\n" +
		"- music_mood: 3-6 keywords describing the musical mood / style (e.g. 'melancholic, ambient, solo piano').\n" +
		"- ambience_description: Short description of ambient sounds (e.g. 'Ocean waves crashing, distant seagulls, wind').\n\n" +
		"=== OUTPUT FORMAT ===\n" + template + "\n\nReturn JSON only."
}

// recomputeMetrics ports AudioAgent.recompute_metrics.
func (a *Agent) recomputeMetrics(content map[string]any) map[string]any {
	scenes := common.SliceAt(content, "scenes")
	common.NormalizeOrder(scenes)

	narrCount := 0
	var narrDur, musicDur float64
	for _, scene := range scenes {
		segments := common.SliceAt(scene, "narration_segments")
		narrCount += len(segments)
		for _, seg := range segments {
			start, _ := seg["start_sec"].(float64)
			end, _ := seg["end_sec"].(float64)
			narrDur += end - start
		}
		mc, _ := scene["music_cue"].(map[string]any)
		if cueID, _ := mc["cue_id"].(string); cueID != "" {
			start, _ := mc["start_sec"].(float64)
			end, _ := mc["end_sec"].(float64)
			musicDur += end - start
		}
	}

	return map[string]any{
		"scene_count":                  len(scenes),
		"narration_segment_count":      narrCount,
		"total_narration_duration_sec": round2(narrDur),
		"total_music_duration_sec":     round2(musicDur),
	}
}
