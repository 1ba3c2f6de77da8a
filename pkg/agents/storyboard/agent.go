// Package storyboard implements StoryboardAgent: translates a Screenplay
// into scene-by-scene shot planning (camera, visual goal, keyframe plan),
// grounded in
// original_source/agents/storyboard/{descriptor,schema}.py and
// original_source/dynamic-task-stack/.../storyboard/{agent,evaluator}.py.
//
// Always skeleton-first: scene shells (ids, order, source, location/
// character lock shells) are pre-built from the screenplay, and the LLM
// fills creative content — consistency-pack details and the shots array.
package storyboard

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

const systemPrompt = "You are StoryboardAgent — a professional storyboard artist.\n" +
	"Output Rules:\n" +
	"- Return JSON only, no markdown, no code fences.\n" +
	"- If something is unknown, use empty string or empty list, not null.\n" +
	"- Follow the output format in the user message exactly."

// Input is StoryboardAgent's input payload.
type Input struct {
	ProjectID      string
	DraftID        string
	Screenplay     map[string]any // the full screenplay asset dict (meta+content)
	MaxShotsPerScene int
	Language       string
}

// Agent translates a Screenplay into a Storyboard via skeleton-first
// generation.
type Agent struct {
	LLM   llmadapter.Client
	Model string
}

func New(llm llmadapter.Client) *Agent {
	return &Agent{LLM: llm, Model: "claude-sonnet"}
}

func (a *Agent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	in, ok := input.(*Input)
	if !ok {
		return nil, apperrors.NewValidationError("input", "storyboard agent requires *storyboard.Input")
	}

	scenes := a.buildSkeleton(in)
	if scenes == nil {
		return nil, apperrors.NewStructureError("storyboard agent requires a non-empty screenplay with scenes")
	}

	content, err := a.fillSkeleton(ctx, in, scenes)
	if err != nil {
		return nil, err
	}

	recomputeMetrics(content)
	return map[string]any{
		"content": content,
		"metrics": metricsOf(content),
	}, nil
}

func (a *Agent) buildSkeleton(in *Input) []map[string]any {
	if in.Screenplay == nil {
		return nil
	}
	spContent, _ := in.Screenplay["content"].(map[string]any)
	spMeta, _ := in.Screenplay["meta"].(map[string]any)
	spAssetID, _ := spMeta["asset_id"].(string)
	spScenes := common.SliceAt(spContent, "scenes")
	if len(spScenes) == 0 {
		return nil
	}

	scenes := make([]map[string]any, 0, len(spScenes))
	for i, spScene := range spScenes {
		sceneID, _ := spScene["scene_id"].(string)
		heading, _ := spScene["heading"].(map[string]any)
		locID, _ := heading["location_id"].(string)
		tod, _ := heading["time_of_day"].(string)
		if tod == "" {
			tod = "DAY"
		}

		charIDs := make(map[string]bool)
		var charOrder []string
		for _, block := range common.SliceAt(spScene, "blocks") {
			if cid, _ := block["character_id"].(string); cid != "" && !charIDs[cid] {
				charIDs[cid] = true
				charOrder = append(charOrder, cid)
			}
		}
		charLocks := make([]map[string]any, 0, len(charOrder))
		for _, cid := range charOrder {
			charLocks = append(charLocks, map[string]any{
				"character_id": cid, "identity_notes": []any{}, "wardrobe_notes": []any{}, "must_keep": []any{},
			})
		}

		scenes = append(scenes, map[string]any{
			"scene_id": sceneID,
			"order":    i + 1,
			"source": map[string]any{
				"screenplay_asset_id": spAssetID,
				"screenplay_scene_id": sceneID,
			},
			"estimated_duration": map[string]any{"seconds": 0.0, "confidence": 0.0},
			"scene_consistency_pack": map[string]any{
				"location_lock": map[string]any{
					"location_id": locID, "time_of_day": tod, "environment_notes": []any{},
				},
				"character_locks": charLocks,
				"props_lock":      []any{},
				"style_lock":      map[string]any{"global_style_notes": []any{}, "must_avoid": []any{}},
			},
			"shots": []any{},
		})
	}
	return scenes
}

func (a *Agent) fillSkeleton(ctx context.Context, in *Input, scenes []map[string]any) (map[string]any, error) {
	prompt := a.buildCreativePrompt(in, scenes)
	resp, err := a.LLM.Complete(ctx, llmadapter.Request{
		Model:       a.Model,
		Messages:    []llmadapter.Message{{Role: "system", Content: systemPrompt}, {Role: "user", Content: prompt}},
		MaxTokens:   8192,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("storyboard_agent", err)
	}

	var creative struct {
		Scenes []map[string]any `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(common.ExtractJSON(resp.Text)), &creative); err != nil {
		return nil, apperrors.NewStructureError("storyboard agent returned non-JSON creative fill: " + err.Error())
	}

	sceneByID := make(map[string]map[string]any, len(creative.Scenes))
	for _, s := range creative.Scenes {
		if id, _ := s["scene_id"].(string); id != "" {
			sceneByID[id] = s
		}
	}

	shotCounter := 1
	propIDMap := make(map[string]string)

	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		fill := sceneByID[sceneID]
		if fill == nil {
			continue
		}

		if dur, ok := fill["estimated_duration"].(map[string]any); ok {
			scene["estimated_duration"] = map[string]any{"seconds": dur["seconds"], "confidence": orDefault(dur["confidence"], 0.7)}
		}

		pack := scene["scene_consistency_pack"].(map[string]any)

		locFill, _ := fill["location_lock"].(map[string]any)
		pack["location_lock"].(map[string]any)["environment_notes"] = locFill["environment_notes"]

		charMap := make(map[string]map[string]any)
		for _, cl := range common.SliceAt(fill, "character_locks") {
			if cid, _ := cl["character_id"].(string); cid != "" {
				charMap[cid] = cl
			}
		}
		for _, cl := range common.SliceAt(pack, "character_locks") {
			cid, _ := cl["character_id"].(string)
			cd := charMap[cid]
			cl["identity_notes"] = cd["identity_notes"]
			cl["wardrobe_notes"] = cd["wardrobe_notes"]
			cl["must_keep"] = cd["must_keep"]
		}

		var propsLock []map[string]any
		for _, p := range common.SliceAt(fill, "props_lock") {
			name, _ := p["prop_name"].(string)
			id, ok := propIDMap[name]
			if !ok {
				id = fmt.Sprintf("prop_%03d", len(propIDMap)+1)
				propIDMap[name] = id
			}
			propsLock = append(propsLock, map[string]any{"prop_id": id, "prop_name": name, "must_keep": p["must_keep"]})
		}
		pack["props_lock"] = toAnySlice(propsLock)

		styleFill, _ := fill["style_lock"].(map[string]any)
		pack["style_lock"] = map[string]any{
			"global_style_notes": styleFill["global_style_notes"],
			"must_avoid":         styleFill["must_avoid"],
		}

		var shots []map[string]any
		for shotOrder, sh := range common.SliceAt(fill, "shots") {
			cam, _ := sh["camera"].(map[string]any)
			kf, _ := sh["keyframe_plan"].(map[string]any)

			var mappedProps []string
			for _, p := range common.SliceOfStrings(sh["props_in_frame"]) {
				if mapped, ok := propIDMap[p]; ok {
					mappedProps = append(mappedProps, mapped)
				} else {
					mappedProps = append(mappedProps, p)
				}
			}

			angle := strOr(cam["angle"], "eye_level")
			movement := strOr(cam["movement"], "static")
			shotType := strOr(sh["shot_type"], "medium")
			kfCount := common.AsInt(kf["keyframe_count"])
			if kfCount < 1 {
				kfCount = 1
			}

			shots = append(shots, map[string]any{
				"shot_id":             fmt.Sprintf("sh_%03d", shotCounter),
				"order":               shotOrder + 1,
				"linked_blocks":       sh["linked_blocks"],
				"estimated_duration_sec": orDefault(sh["estimated_duration_sec"], 3.0),
				"shot_type":           shotType,
				"camera":              map[string]any{"angle": angle, "movement": movement, "framing_notes": cam["framing_notes"]},
				"visual_goal":         sh["visual_goal"],
				"action_focus":        sh["action_focus"],
				"characters_in_frame": sh["characters_in_frame"],
				"props_in_frame":      toAnyStrings(mappedProps),
				"keyframe_plan":       map[string]any{"keyframe_count": kfCount, "keyframe_notes": kf["keyframe_notes"]},
			})
			shotCounter++
		}
		scene["shots"] = toAnySlice(shots)
	}

	return map[string]any{"scenes": toAnySlice(scenes)}, nil
}

func (a *Agent) buildCreativePrompt(in *Input, scenes []map[string]any) string {
	spJSON, _ := json.MarshalIndent(in.Screenplay, "", "  ")

	var sceneEntries []string
	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		pack := scene["scene_consistency_pack"].(map[string]any)
		var charEntries []string
		for _, cl := range common.SliceAt(pack, "character_locks") {
			cid, _ := cl["character_id"].(string)
			charEntries = append(charEntries, fmt.Sprintf(
				`            {"character_id": "%s", "identity_notes": ["<FILL>"], "wardrobe_notes": ["<FILL>"], "must_keep": ["<FILL>"]}`, cid))
		}
		sceneEntries = append(sceneEntries, fmt.Sprintf(
			"    {\n"+
				"      \"scene_id\": \"%s\",\n"+
				"      \"estimated_duration\": {\"seconds\": 0, \"confidence\": 0.7},\n"+
				"      \"location_lock\": {\"environment_notes\": [\"<FILL>\"]},\n"+
				"      \"character_locks\": [\n%s\n      ],\n"+
				"      \"props_lock\": [\n        {\"prop_name\": \"<FILL>\", \"must_keep\": []}\n      ],\n"+
				"      \"style_lock\": {\"global_style_notes\": [\"<FILL>\"], \"must_avoid\": [\"<FILL>\"]},\n"+
				"      \"shots\": [\n"+
				"        {\n"+
				"          \"linked_blocks\": [\"<block_ids>\"],\n"+
				"          \"estimated_duration_sec\": 3.0,\n"+
				"          \"shot_type\": \"medium\",\n"+
				"          \"camera\": {\"angle\": \"eye_level\", \"movement\": \"static\", \"framing_notes\": \"<FILL>\"},\n"+
				"          \"visual_goal\": \"<FILL>\",\n"+
				"          \"action_focus\": \"<FILL>\",\n"+
				"          \"characters_in_frame\": [],\n"+
				"          \"props_in_frame\": [],\n"+
				"          \"keyframe_plan\": {\"keyframe_count\": 1, \"keyframe_notes\": []}\n"+
				"        }\n"+
				"      ]\n"+
				"    }",
			sceneID, strings.Join(charEntries, ",\n"),
		))
	}
	template := "{\n  \"scenes\": [\n" + strings.Join(sceneEntries, ",\n") + "\n  ]\n}"

	maxShots := in.MaxShotsPerScene
	if maxShots == 0 {
		maxShots = 12
	}

	return "The system has pre-built scene shells with known structural fields " +
		"(scene_id, order, source, location_lock.location_id, location_lock.time_of_day, " +
		"character_lock shells).\n\n" +
		"Your job is to fill ALL creative content:\n" +
		"- Per scene: estimated_duration, environment_notes, character lock details, " +
		"props_lock, style_lock, shots[]\n" +
		"- shots[]: Generate ALL shots for each scene. Each shot needs: linked_blocks, " +
		"estimated_duration_sec, shot_type, camera, visual_goal, action_focus, " +
		"characters_in_frame, props_in_frame, keyframe_plan. Do NOT include shot_ids " +
		"— they will be auto-assigned.\n\n" +
		fmt.Sprintf("=== SCREENPLAY ===\n%s\n\n", spJSON) +
		"=== OUTPUT FORMAT ===\n" + template + "\n\n" +
		"CRITICAL:\n" +
		"- The shots array shows only ONE example per scene. You MUST generate ALL " +
		"shots needed (typically 3-8 per scene).\n" +
		"- Each shot should cover one or more screenplay blocks.\n" +
		"- All linked_blocks must reference existing block IDs from the screenplay.\n" +
		fmt.Sprintf("- Max shots per scene: %d\n", maxShots) +
		fmt.Sprintf("- Language: %s\n\n", orString(in.Language, "en")) +
		"Return JSON only."
}

func recomputeMetrics(content map[string]any) {
	scenes := common.SliceAt(content, "scenes")
	common.NormalizeOrder(scenes)
	for _, scene := range scenes {
		common.NormalizeOrder(common.SliceAt(scene, "shots"))
	}
}

func metricsOf(content map[string]any) map[string]any {
	scenes := common.SliceAt(content, "scenes")
	sceneCount := len(scenes)
	shotCount := 0
	var sumDur float64
	for _, scene := range scenes {
		shots := common.SliceAt(scene, "shots")
		shotCount += len(shots)
		for _, shot := range shots {
			sumDur += asFloat(shot["estimated_duration_sec"])
		}
	}
	avg := 0.0
	if sceneCount > 0 {
		avg = float64(shotCount) / float64(sceneCount)
	}
	return map[string]any{
		"scene_count":           sceneCount,
		"shot_count_total":      shotCount,
		"avg_shots_per_scene":   avg,
		"sum_shot_duration_sec": sumDur,
		"duration_match_score":  0.0,
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func orDefault(v any, def float64) any {
	if v == nil {
		return def
	}
	return v
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func strOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func toAnySlice(maps []map[string]any) []any {
	out := make([]any, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out
}

func toAnyStrings(strs []string) []any {
	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}
