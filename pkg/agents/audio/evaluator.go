package audio

import (
	"context"
	"fmt"
	"sort"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const (
	creativePassThreshold = 0.65
	assetPassThreshold    = 0.8
)

var creativeDimensions = []common.Dimension{
	{Name: "narration_alignment", Question: "Does the narration faithfully reproduce the screenplay dialogue/narration? Are speakers correctly matched to characters?"},
	{Name: "music_mood_fit", Question: "Do the music cue moods match the emotional arc of each scene? Does the ambience description fit the location and atmosphere?"},
}

// Evaluator is AudioEvaluator, grounded in
// original_source/dynamic-task-stack/.../audio/evaluator.py.
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

	if vid, ok := upstream["video"].(map[string]any); ok {
		vidContent, _ := vid["content"].(map[string]any)
		vidScenes := common.SliceAt(vidContent, "scenes")
		if len(vidScenes) > 0 {
			want := common.IDSet(vidScenes, "scene_id")
			got := common.IDSet(scenes, "scene_id")
			errs = append(errs, common.CheckIDCoverage("audio vs video scenes", want, got)...)
		}
	}

	var allBlockIDs map[string]bool
	if sp, ok := upstream["screenplay"].(map[string]any); ok {
		spContent, _ := sp["content"].(map[string]any)
		allBlockIDs = make(map[string]bool)
		for _, spScene := range common.SliceAt(spContent, "scenes") {
			for _, block := range common.SliceAt(spScene, "blocks") {
				if bid, _ := block["block_id"].(string); bid != "" {
					allBlockIDs[bid] = true
				}
			}
		}
	}

	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		sceneDur, _ := scene["scene_duration_sec"].(float64)
		segments := common.SliceAt(scene, "narration_segments")

		for _, seg := range segments {
			segID, _ := seg["segment_id"].(string)
			start, _ := seg["start_sec"].(float64)
			end, _ := seg["end_sec"].(float64)
			if end > sceneDur+0.1 {
				errs = append(errs, fmt.Sprintf("scene %s narration segment %s end_sec (%.2f) exceeds scene_duration_sec (%.2f)", sceneID, segID, end, sceneDur))
			}
			if start >= end {
				errs = append(errs, fmt.Sprintf("narration segment %s: start_sec (%.2f) >= end_sec (%.2f)", segID, start, end))
			}
			if text, _ := seg["text"].(string); text == "" {
				errs = append(errs, fmt.Sprintf("narration segment %s has empty text", segID))
			}
			if speaker, _ := seg["speaker"].(string); speaker == "" {
				errs = append(errs, fmt.Sprintf("narration segment %s has empty speaker", segID))
			}
			if allBlockIDs != nil {
				if bid, _ := seg["linked_block_id"].(string); bid != "" && !allBlockIDs[bid] {
					errs = append(errs, fmt.Sprintf("narration segment %s references unknown block %s", segID, bid))
				}
			}
		}

		mc, _ := scene["music_cue"].(map[string]any)
		if mcEnd, _ := mc["end_sec"].(float64); mcEnd > sceneDur+0.1 {
			errs = append(errs, fmt.Sprintf("scene %s music_cue end_sec (%.2f) exceeds scene_duration_sec (%.2f)", sceneID, mcEnd, sceneDur))
		}
		ab, _ := scene["ambience_bed"].(map[string]any)
		if abEnd, _ := ab["end_sec"].(float64); abEnd > sceneDur+0.1 {
			errs = append(errs, fmt.Sprintf("scene %s ambience_bed end_sec (%.2f) exceeds scene_duration_sec (%.2f)", sceneID, abEnd, sceneDur))
		}

		sorted := append([]map[string]any(nil), segments...)
		sort.Slice(sorted, func(i, j int) bool {
			si, _ := sorted[i]["start_sec"].(float64)
			sj, _ := sorted[j]["start_sec"].(float64)
			return si < sj
		})
		for i := 0; i+1 < len(sorted); i++ {
			end, _ := sorted[i]["end_sec"].(float64)
			nextStart, _ := sorted[i+1]["start_sec"].(float64)
			if end > nextStart+0.05 {
				id1, _ := sorted[i]["segment_id"].(string)
				id2, _ := sorted[i+1]["segment_id"].(string)
				errs = append(errs, fmt.Sprintf("scene %s: narration segments %s and %s overlap (%.2f > %.2f)", sceneID, id1, id2, end, nextStart))
			}
		}

		if cueID, _ := mc["cue_id"].(string); cueID != "" {
			if start, _ := mc["start_sec"].(float64); start > 0.1 {
				errs = append(errs, fmt.Sprintf("scene %s music_cue starts at %.2f, expected near 0", sceneID, start))
			}
			if mood, _ := mc["mood"].(string); mood == "" {
				errs = append(errs, fmt.Sprintf("scene %s music_cue has empty mood", sceneID))
			}
		}
		if ambID, _ := ab["ambience_id"].(string); ambID != "" {
			if start, _ := ab["start_sec"].(float64); start > 0.1 {
				errs = append(errs, fmt.Sprintf("scene %s ambience_bed starts at %.2f, expected near 0", sceneID, start))
			}
			if desc, _ := ab["description"].(string); desc == "" {
				errs = append(errs, fmt.Sprintf("scene %s ambience_bed has empty description", sceneID))
			}
		}
	}

	metrics, _ := output["metrics"].(map[string]any)
	narrCount := 0
	for _, scene := range scenes {
		narrCount += len(common.SliceAt(scene, "narration_segments"))
	}
	errs = append(errs, common.CheckMetric(metrics, "scene_count", len(scenes))...)
	errs = append(errs, common.CheckMetric(metrics, "narration_segment_count", narrCount)...)

	if len(scenes) == 0 {
		errs = append(errs, "scenes list is empty")
	}
	return errs
}

func (e *Evaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	sp, _ := upstream["screenplay"].(map[string]any)
	spContext := ""
	if sp != nil {
		spContext = fmt.Sprintf("Screenplay:\n%v", sp)
	}
	content, _ := output["content"].(map[string]any)

	prompt := fmt.Sprintf("%s\n\nAudio plan:\n%v\n\nScore each dimension from 0.0 to 1.0 and explain briefly:\n", spContext, content)
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
	return descriptor.CreativeResult{Dimensions: scores, OverallPass: overall, Summary: resp.Text}, nil
}

// EvaluateAsset is Layer 3: TTS, music, ambience, scene mixes, and final
// audio all have "uri" written after materialization.
func (e *Evaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	content, _ := assetData["content"].(map[string]any)
	scenes := common.SliceAt(content, "scenes")

	narrPlanned, narrSuccess, narrError := 0, 0, 0
	musicPlanned, musicSuccess := 0, 0
	ambPlanned, ambSuccess := 0, 0
	mixPlanned, mixSuccess := 0, 0

	for _, scene := range scenes {
		for _, seg := range common.SliceAt(scene, "narration_segments") {
			asset, _ := seg["audio_asset"].(map[string]any)
			uri, _ := asset["uri"].(string)
			narrPlanned++
			switch common.CheckURI(uri) {
			case "success":
				narrSuccess++
			case "error":
				narrError++
			}
		}
		if mc, _ := scene["music_cue"].(map[string]any); mc != nil {
			if cueID, _ := mc["cue_id"].(string); cueID != "" {
				musicPlanned++
				asset, _ := mc["audio_asset"].(map[string]any)
				uri, _ := asset["uri"].(string)
				if common.CheckURI(uri) == "success" {
					musicSuccess++
				}
			}
		}
		if ab, _ := scene["ambience_bed"].(map[string]any); ab != nil {
			if ambID, _ := ab["ambience_id"].(string); ambID != "" {
				ambPlanned++
				asset, _ := ab["audio_asset"].(map[string]any)
				uri, _ := asset["uri"].(string)
				if common.CheckURI(uri) == "success" {
					ambSuccess++
				}
			}
		}
		if mx, _ := scene["mix"].(map[string]any); mx != nil {
			if mixID, _ := mx["mix_id"].(string); mixID != "" {
				mixPlanned++
				asset, _ := mx["audio_asset"].(map[string]any)
				uri, _ := asset["uri"].(string)
				if common.CheckURI(uri) == "success" {
					mixSuccess++
				}
			}
		}
	}

	final, _ := content["final_audio_asset"].(map[string]any)
	finalURI, _ := final["uri"].(string)
	finalOK := common.CheckURI(finalURI) == "success"

	narrRate := zeroSafeRate(narrSuccess, narrPlanned)
	musicRate := zeroSafeRate(musicSuccess, musicPlanned)
	mixRate := zeroSafeRate(mixSuccess, mixPlanned)
	finalScore := 0.0
	if finalOK {
		finalScore = 1.0
	}

	overall := narrRate >= assetPassThreshold && musicRate >= 0.5
	summary := fmt.Sprintf("Audio asset eval: TTS %d/%d (%.0f%%), music %d/%d, mixes %d/%d (ambience %d/%d), final=%v.",
		narrSuccess, narrPlanned, narrRate*100, musicSuccess, musicPlanned, mixSuccess, mixPlanned, ambSuccess, ambPlanned, finalOK)
	if narrError > 0 {
		summary += fmt.Sprintf(" %d narration segments failed with errors.", narrError)
	}

	return descriptor.AssetResult{
		Dimensions: map[string]float64{
			"tts_generation_success":   narrRate,
			"music_generation_success": musicRate,
			"mix_completeness":         (mixRate + finalScore) / 2.0,
			"audio_quality":            1.0,
			"timing_accuracy":          1.0,
		},
		OverallPass: overall,
		Summary:     summary,
	}, nil
}

func zeroSafeRate(success, planned int) float64 {
	if planned == 0 {
		return 0.0
	}
	return float64(success) / float64(planned)
}
