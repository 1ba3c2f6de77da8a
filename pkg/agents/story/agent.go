// Package story implements StoryAgent: expands a draft idea (or a detailed
// user outline) into a Story Blueprint — logline, cast, locations, story
// arc, and scene outline — grounded in
// original_source/agents/story/{descriptor,agent,schema,evaluator}.py.
//
// The blueprint feeds ScreenplayAgent; StoryAgent itself produces no binary
// assets.
package story

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
    "logline": "<one-sentence story hook>",
    "estimated_duration": { "seconds": 60.0, "confidence": 0.7 },
    "style": {
      "genre": ["<genre1>", "<genre2>"],
      "tone_keywords": ["<tone1>", "<tone2>"]
    },
    "cast": [
      {
        "character_id": "char_001",
        "name": "<name>",
        "role": "protagonist|antagonist|support",
        "profile": "<narrative portrait>",
        "motivation": "<what drives them>",
        "flaw": "<what holds them back>"
      }
    ],
    "locations": [
      {
        "location_id": "loc_001",
        "name": "<name>",
        "description": "<description>"
      }
    ],
    "story_arc": [
      {
        "step_id": "arc_001",
        "order": 1,
        "step_type": "setup|inciting|turn|crisis|climax|resolution",
        "summary": "<what happens>",
        "conflict": "<core tension>",
        "turning_point": "<what changes>"
      }
    ],
    "scene_outline": [
      {
        "scene_id": "sc_001",
        "order": 1,
        "linked_step_id": "arc_001",
        "location_id": "loc_001",
        "time_of_day_hint": "DAY|NIGHT|CUSTOM",
        "characters_present": ["char_001"],
        "goal": "<scene goal>",
        "conflict": "<scene conflict>",
        "turn": "<scene turn>"
      }
    ]
  }
}`

const systemPrompt = `You are StoryAgent. ` +
	"Task: Expand a brief draft idea into a Story Blueprint (story_blueprint).\n" +
	"The blueprint answers: what the story is, why it works, and how it unfolds at scene level.\n\n" +
	"You MUST:\n" +
	"- Keep scope and cast/location counts realistic.\n" +
	"- Ensure dramatic viability: clear conflict, stakes, turning points, resolution.\n" +
	"- Produce cast, locations, story_arc, and scene_outline with consistent IDs.\n" +
	"- Use IDs: char_001, loc_001, arc_001, sc_001, etc.\n\n" +
	"You MUST NOT:\n" +
	"- Write dialogue lines or screenplay blocks.\n" +
	"- Describe shots/camera, keyframes, audio, or editing.\n" +
	"- Mention any agent names.\n\n" +
	"Output Rules:\n" +
	"- Return JSON only, no markdown, no code fences.\n" +
	"- Do not include trailing comments.\n" +
	"- If something is unknown, use empty string or empty list, not null.\n" +
	"- You MUST follow EXACTLY the JSON structure template provided in the user prompt.\n" +
	"- The output MUST have a single top-level key: content.\n" +
	"- Do NOT include \"meta\" or \"metrics\" blocks — both are injected by the system.\n" +
	"- You MUST include \"estimated_duration\" inside content with your best estimate."

// Input is StoryAgent's input payload. When UserProvidedText is non-empty
// the agent runs in structuring mode: it maps an existing outline into the
// blueprint schema instead of generating one from a one-line idea.
type Input struct {
	ProjectID         string
	DraftID           string
	DraftIdea         string
	UserProvidedText  string
}

// Agent expands a draft idea (or structures a user-provided outline) into a
// Story Blueprint via a single LLM completion.
type Agent struct {
	LLM   llmadapter.Client
	Model string
}

// New wires an Agent around an LLM client, matching the
// agent_factory=lambda llm: StoryAgent(llm_client=llm) pattern.
func New(llm llmadapter.Client) *Agent {
	return &Agent{LLM: llm, Model: "claude-sonnet"}
}

// Run builds the system/user prompt pair, calls the LLM, and returns the
// parsed Story Blueprint content plus metrics computed over it.
func (a *Agent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	in, ok := input.(*Input)
	if !ok {
		return nil, apperrors.NewValidationError("input", "story agent requires *story.Input")
	}

	userPrompt := a.buildGeneratePrompt(in)
	if strings.TrimSpace(in.UserProvidedText) != "" {
		userPrompt = a.buildStructuringPrompt(in)
	}

	resp, err := a.LLM.Complete(ctx, llmadapter.Request{
		Model: a.Model,
		Messages: []llmadapter.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   4096,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("story_agent", err)
	}

	var parsed struct {
		Content map[string]any `json:"content"`
	}
	if err := json.Unmarshal([]byte(common.ExtractJSON(resp.Text)), &parsed); err != nil {
		return nil, apperrors.NewStructureError("story agent returned non-JSON output: " + err.Error())
	}

	recomputeMetrics(parsed.Content)

	return map[string]any{
		"content": parsed.Content,
		"metrics": metricsOf(parsed.Content),
	}, nil
}

func (a *Agent) buildGeneratePrompt(in *Input) string {
	return fmt.Sprintf(
		"Draft idea (raw): %s\n\nproject_id: %s\ndraft_id: %s\n\n"+
			"Constraints:\n- Target duration: 60 seconds (estimate)\n- Language: en\n\n"+
			"You MUST output JSON matching EXACTLY this structure (fill in real content):\n%s\n\n"+
			"Self-check before finalizing:\n"+
			"- Every scene_outline[i].location_id exists in locations[]\n"+
			"- Every character_id referenced exists in cast[]\n"+
			"- story_arc order is continuous starting at 1\n"+
			"- scene_outline order is continuous starting at 1\n\n"+
			"Return JSON only.",
		in.DraftIdea, in.ProjectID, in.DraftID, outputTemplate,
	)
}

func (a *Agent) buildStructuringPrompt(in *Input) string {
	return "=== STRUCTURING MODE ===\n" +
		"You have received a DETAILED STORY OUTLINE from the user. " +
		"Your task is to STRUCTURE it into the Story Blueprint JSON schema " +
		"— NOT to rewrite or reinvent the story.\n\n" +
		"RULES:\n" +
		"- PRESERVE the user's character names, locations, and plot points VERBATIM. " +
		"Do not rename, merge, or drop them.\n" +
		"- Map the user's plot arc / beats into story_arc steps with appropriate step_type " +
		"(setup / inciting / turn / crisis / climax / resolution).\n" +
		"- Map the user's scene breakdown (if provided) into scene_outline entries. " +
		"If no explicit scenes are given, derive them from the plot arc (one scene per major beat).\n" +
		"- Fill in any MISSING fields the user did not provide.\n" +
		"- Assign stable IDs: char_001, loc_001, arc_001, sc_001, etc.\n" +
		"- Keep scope realistic for a ~60 second video.\n\n" +
		"=== USER-PROVIDED STORY OUTLINE ===\n" + in.UserProvidedText + "\n=== END USER OUTLINE ===\n\n" +
		fmt.Sprintf("project_id: %s\ndraft_id: %s\n\n", in.ProjectID, in.DraftID) +
		"You MUST output JSON matching EXACTLY this structure:\n" + outputTemplate + "\n\n" +
		"Self-check before finalizing:\n" +
		"- Every scene_outline[i].location_id exists in locations[]\n" +
		"- Every character_id referenced exists in cast[]\n" +
		"- story_arc order is continuous starting at 1\n" +
		"- scene_outline order is continuous starting at 1\n" +
		"- Character names match the user's original names exactly\n" +
		"- Location names match the user's original names exactly\n\n" +
		"Return JSON only."
}

// recomputeMetrics renumbers story_arc/scene_outline order, mirroring
// StoryAgent.recompute_metrics; the character/location/scene counts are
// computed separately by metricsOf.
func recomputeMetrics(content map[string]any) {
	common.NormalizeOrder(common.SliceAt(content, "story_arc"))
	common.NormalizeOrder(common.SliceAt(content, "scene_outline"))
}

func metricsOf(content map[string]any) map[string]any {
	return map[string]any{
		"character_count": len(common.SliceAt(content, "cast")),
		"location_count":  len(common.SliceAt(content, "locations")),
		"scene_count":     len(common.SliceAt(content, "scene_outline")),
	}
}
