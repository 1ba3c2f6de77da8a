// Package screenplay implements ScreenplayAgent: turns a Story Blueprint
// (or raw user screenplay text) into a structured Screenplay — scenes of
// dialogue/action/narration blocks — grounded in
// original_source/agents/screenplay/{descriptor,agent,schema,evaluator}.py.
//
// Two modes: skeleton-first (pre-builds scene shells from the story
// blueprint, then asks the LLM to fill only the creative content) when a
// blueprint is available, and legacy structuring mode when the caller
// supplies raw screenplay text instead.
package screenplay

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

const outputTemplate = `{
  "content": {
    "title": "<screenplay title>",
    "scenes": [
      {
        "scene_id": "sc_001",
        "order": 1,
        "linked_story_step_id": "arc_001",
        "heading": {
          "location_id": "loc_001",
          "location_name": "<location name>",
          "interior_exterior": "INT|EXT",
          "time_of_day": "DAY|NIGHT"
        },
        "summary": "<what happens in this scene>",
        "estimated_duration": { "seconds": 20, "confidence": 0.7 },
        "continuity": {
          "props_present": [],
          "character_wardrobe_notes": [
            { "character_id": "char_001", "wardrobe": "<description>", "must_keep": ["<item>"] }
          ],
          "must_keep_scene_facts": ["<fact>"]
        },
        "blocks": [
          { "block_id": "b_001", "block_type": "action", "character_id": "", "character_name": "", "text": "<action description>", "continuity_refs": { "props": [], "wardrobe_character_ids": [] } },
          { "block_id": "b_002", "block_type": "dialogue", "character_id": "char_001", "character_name": "<name>", "text": "<dialogue line>", "continuity_refs": { "props": [], "wardrobe_character_ids": ["char_001"] } }
        ],
        "scene_end": { "turn": "<narrative turn>", "emotional_shift": "<shift>" }
      }
    ]
  }
}`

const systemPrompt = "You are ScreenplayAgent — a professional screenwriter.\n" +
	"Output Rules:\n" +
	"- Return JSON only, no markdown, no code fences.\n" +
	"- If something is unknown, use empty string or empty list, not null.\n" +
	"- Follow the output format in the user message exactly."

// Input is ScreenplayAgent's input payload. When UserProvidedText is
// non-empty the agent structures that raw text instead of generating from
// StoryBlueprint.
type Input struct {
	ProjectID          string
	DraftID            string
	StoryBlueprint     map[string]any // the blueprint's "content" object
	TargetDurationSec  float64
	Language           string
	UserProvidedText   string
}

// Agent produces a Screenplay from a Story Blueprint (skeleton-first) or
// from raw user text (legacy structuring).
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
		return nil, apperrors.NewValidationError("input", "screenplay agent requires *screenplay.Input")
	}

	skeleton := a.buildSkeleton(in)
	var content map[string]any
	var err error
	if skeleton != nil {
		content, err = a.fillSkeleton(ctx, in, skeleton)
	} else {
		content, err = a.generateFromText(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	recomputeMetrics(content)
	return map[string]any{
		"content": content,
		"metrics": metricsOf(content),
	}, nil
}

// buildSkeleton pre-builds scene shells from the story blueprint's
// scene_outline. Returns nil when there's no usable blueprint (legacy
// user-text path takes over in that case).
func (a *Agent) buildSkeleton(in *Input) []map[string]any {
	if strings.TrimSpace(in.UserProvidedText) != "" || in.StoryBlueprint == nil {
		return nil
	}
	sceneOutline := common.SliceAt(in.StoryBlueprint, "scene_outline")
	if len(sceneOutline) == 0 {
		return nil
	}

	locations := make(map[string]map[string]any)
	for _, loc := range common.SliceAt(in.StoryBlueprint, "locations") {
		if id, _ := loc["location_id"].(string); id != "" {
			locations[id] = loc
		}
	}

	scenes := make([]map[string]any, 0, len(sceneOutline))
	for _, so := range sceneOutline {
		locID, _ := so["location_id"].(string)
		loc := locations[locID]
		locName, _ := loc["name"].(string)
		tod, _ := so["time_of_day_hint"].(string)
		if tod == "" {
			tod = "DAY"
		}

		var wardrobeNotes []map[string]any
		for _, cid := range common.SliceOfStrings(so["characters_present"]) {
			wardrobeNotes = append(wardrobeNotes, map[string]any{
				"character_id": cid, "wardrobe": "", "must_keep": []any{},
			})
		}

		scenes = append(scenes, map[string]any{
			"scene_id":             so["scene_id"],
			"order":                common.AsInt(so["order"]),
			"linked_story_step_id": so["linked_step_id"],
			"heading": map[string]any{
				"location_id":        locID,
				"location_name":      locName,
				"interior_exterior":  "INT",
				"time_of_day":        tod,
			},
			"summary":             "",
			"estimated_duration":  map[string]any{"seconds": 0.0, "confidence": 0.0},
			"continuity": map[string]any{
				"props_present":            []any{},
				"character_wardrobe_notes": wardrobeNotes,
				"must_keep_scene_facts":    []any{},
			},
			"blocks":    []any{},
			"scene_end": map[string]any{"turn": "", "emotional_shift": ""},
		})
	}
	return scenes
}

// fillSkeleton asks the LLM to fill only creative content per scene, then
// merges the result into the pre-built shells.
func (a *Agent) fillSkeleton(ctx context.Context, in *Input, scenes []map[string]any) (map[string]any, error) {
	prompt := a.buildCreativePrompt(in, scenes)
	resp, err := a.LLM.Complete(ctx, llmadapter.Request{
		Model:       a.Model,
		Messages:    []llmadapter.Message{{Role: "system", Content: systemPrompt}, {Role: "user", Content: prompt}},
		MaxTokens:   8192,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("screenplay_agent", err)
	}

	var creative struct {
		Title  string           `json:"title"`
		Scenes []map[string]any `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(common.ExtractJSON(resp.Text)), &creative); err != nil {
		return nil, apperrors.NewStructureError("screenplay agent returned non-JSON creative fill: " + err.Error())
	}

	sceneByID := make(map[string]map[string]any, len(creative.Scenes))
	for _, s := range creative.Scenes {
		if id, _ := s["scene_id"].(string); id != "" {
			sceneByID[id] = s
		}
	}

	blockCounter := 1
	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		fill := sceneByID[sceneID]
		if fill == nil {
			continue
		}

		if ie, _ := fill["interior_exterior"].(string); ie != "" {
			scene["heading"].(map[string]any)["interior_exterior"] = ie
		}
		scene["summary"] = fill["summary"]
		if dur, ok := fill["estimated_duration"].(map[string]any); ok {
			scene["estimated_duration"] = map[string]any{
				"seconds":    dur["seconds"],
				"confidence": orDefault(dur["confidence"], 0.7),
			}
		}

		var blocks []map[string]any
		for _, b := range common.SliceAt(fill, "blocks") {
			blockType, _ := b["block_type"].(string)
			if blockType == "" {
				blockType = "action"
			}
			blocks = append(blocks, map[string]any{
				"block_id":     fmt.Sprintf("b_%03d", blockCounter),
				"block_type":   blockType,
				"character_id": b["character_id"],
				"character_name": b["character_name"],
				"text":         b["text"],
				"continuity_refs": map[string]any{
					"props":                  b["props"],
					"wardrobe_character_ids": b["wardrobe_character_ids"],
				},
			})
			blockCounter++
		}
		scene["blocks"] = blocks

		se, _ := fill["scene_end"].(map[string]any)
		scene["scene_end"] = map[string]any{"turn": se["turn"], "emotional_shift": se["emotional_shift"]}

		cont := scene["continuity"].(map[string]any)
		cont["props_present"] = fill["props_present"]
		cont["must_keep_scene_facts"] = fill["must_keep_scene_facts"]

		wardrobeByID := make(map[string]map[string]any)
		for _, w := range common.SliceAt(fill, "wardrobe") {
			if cid, _ := w["character_id"].(string); cid != "" {
				wardrobeByID[cid] = w
			}
		}
		for _, wn := range common.SliceAt(cont, "character_wardrobe_notes") {
			cid, _ := wn["character_id"].(string)
			wd := wardrobeByID[cid]
			wn["wardrobe"] = wd["wardrobe"]
			wn["must_keep"] = wd["must_keep"]
		}
	}

	return map[string]any{"title": creative.Title, "scenes": toAnySlice(scenes)}, nil
}

func (a *Agent) buildCreativePrompt(in *Input, scenes []map[string]any) string {
	bpJSON, _ := json.MarshalIndent(in.StoryBlueprint, "", "  ")

	var sceneEntries []string
	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		var wardrobeLines []string
		for _, w := range common.SliceAt(scene["continuity"].(map[string]any), "character_wardrobe_notes") {
			cid, _ := w["character_id"].(string)
			wardrobeLines = append(wardrobeLines, fmt.Sprintf(`          {"character_id": "%s", "wardrobe": "<FILL>", "must_keep": []}`, cid))
		}
		sceneEntries = append(sceneEntries, fmt.Sprintf(
			"    {\n"+
				"      \"scene_id\": \"%s\",\n"+
				"      \"interior_exterior\": \"<FILL: INT or EXT>\",\n"+
				"      \"summary\": \"<FILL>\",\n"+
				"      \"estimated_duration\": {\"seconds\": 0, \"confidence\": 0.7},\n"+
				"      \"props_present\": [],\n"+
				"      \"must_keep_scene_facts\": [],\n"+
				"      \"wardrobe\": [\n%s\n      ],\n"+
				"      \"blocks\": [\n"+
				"        {\"block_type\": \"action\", \"character_id\": \"\", \"character_name\": \"\", \"text\": \"<FILL>\", \"props\": [], \"wardrobe_character_ids\": []}\n"+
				"      ],\n"+
				"      \"scene_end\": {\"turn\": \"<FILL>\", \"emotional_shift\": \"<FILL>\"}\n"+
				"    }",
			sceneID, strings.Join(wardrobeLines, ",\n"),
		))
	}
	template := "{\n  \"title\": \"<FILL>\",\n  \"scenes\": [\n" + strings.Join(sceneEntries, ",\n") + "\n  ]\n}"

	return "The system has pre-built scene shells with known structural fields " +
		"(scene_id, order, linked_story_step_id, heading).\n\n" +
		"Your job is to fill ALL creative content:\n" +
		"- title: screenplay title\n" +
		"- Per scene: interior_exterior (INT/EXT), summary, estimated_duration, " +
		"blocks[], scene_end, props_present, must_keep_scene_facts, wardrobe descriptions\n" +
		"- blocks[]: Generate ALL dialogue/action/narration blocks. " +
		"Each block needs: block_type, character_id, character_name, text. " +
		"Do NOT include block_ids — they will be auto-assigned.\n\n" +
		fmt.Sprintf("=== STORY BLUEPRINT ===\n%s\n\n", bpJSON) +
		"=== OUTPUT FORMAT ===\n" + template + "\n\n" +
		"CRITICAL:\n" +
		"- The blocks array shows only ONE example per scene. You MUST generate " +
		"ALL blocks (typically 3-10 per scene).\n" +
		"- Dialogue style: natural, filmable, concise.\n" +
		"- Keep character voice consistent with profiles/motivation/flaw.\n" +
		fmt.Sprintf("- Language: %s\n\n", orString(in.Language, "en")) +
		"Return JSON only."
}

// generateFromText structures a user's raw screenplay text directly,
// mirroring the legacy user-text path.
func (a *Agent) generateFromText(ctx context.Context, in *Input) (map[string]any, error) {
	prompt := "You are receiving raw screenplay text provided directly by the user. " +
		"Your job is to **structure** this text into the required JSON schema " +
		"— do NOT rewrite or embellish the creative content. Preserve the user's " +
		"dialogue, action descriptions, scene structure, and character names as " +
		"faithfully as possible.\n\n" +
		"--- BEGIN USER TEXT ---\n" + in.UserProvidedText + "\n--- END USER TEXT ---\n\n" +
		fmt.Sprintf("Constraints:\n- Language: %s\n", orString(in.Language, "en")) +
		"- Assign scene_ids starting from sc_001.\n" +
		"- Assign character_ids starting from char_001.\n" +
		"- Assign location_ids starting from loc_001.\n" +
		"- Assign block_ids starting from b_001 globally.\n" +
		"- Estimate per-scene duration (seconds, confidence).\n\n" +
		"You MUST output JSON matching EXACTLY this structure (fill in real content):\n" +
		outputTemplate + "\n\n" +
		"Self-check:\n" +
		"- Each block has a unique block_id (b_001, b_002, ...)\n" +
		"- dialogue blocks include character_id + character_name + text\n" +
		"- action blocks describe visible action (no camera terms)\n\n" +
		"Return JSON only."

	resp, err := a.LLM.Complete(ctx, llmadapter.Request{
		Model:       a.Model,
		Messages:    []llmadapter.Message{{Role: "system", Content: systemPrompt}, {Role: "user", Content: prompt}},
		MaxTokens:   8192,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("screenplay_agent", err)
	}

	var parsed struct {
		Content map[string]any `json:"content"`
	}
	if err := json.Unmarshal([]byte(common.ExtractJSON(resp.Text)), &parsed); err != nil {
		return nil, apperrors.NewStructureError("screenplay agent returned non-JSON output: " + err.Error())
	}
	return parsed.Content, nil
}

func recomputeMetrics(content map[string]any) {
	common.NormalizeOrder(common.SliceAt(content, "scenes"))
}

func metricsOf(content map[string]any) map[string]any {
	scenes := common.SliceAt(content, "scenes")
	var dialogue, action int
	var sumDuration float64
	for _, scene := range scenes {
		for _, block := range common.SliceAt(scene, "blocks") {
			switch block["block_type"] {
			case "dialogue":
				dialogue++
			case "action":
				action++
			}
		}
		if dur, ok := scene["estimated_duration"].(map[string]any); ok {
			sumDuration += asFloat(dur["seconds"])
		}
	}
	return map[string]any{
		"scene_count":                   len(scenes),
		"dialogue_block_count":          dialogue,
		"action_block_count":            action,
		"sum_scene_duration_sec":        sumDuration,
		"estimated_total_duration_sec":  sumDuration,
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

func toAnySlice(maps []map[string]any) []any {
	out := make([]any, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out
}
