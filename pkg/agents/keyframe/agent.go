// Package keyframe implements KeyFrameAgent: writes image-generation
// prompts for a storyboard's three anchor layers (global, per-scene,
// per-shot), grounded in
// original_source/agents/keyframe/{descriptor,evaluator}.py and
// original_source/dynamic-task-stack/.../keyframe/{schema,agent}.py.
//
// Skeleton-first, like storyboard: every id, order, source ref, and image
// placeholder is pre-built from the storyboard; the LLM fills only
// prompt_summary fields. Unlike the other agents, the creative fill runs as
// 1 global-anchors call plus N concurrent per-scene calls (one goroutine
// each) instead of a single call, since a single massive prompt_summary
// request tends to time out.
package keyframe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/storyforge-ai/storyforge/pkg/agents/common"
	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
)

const systemPrompt = "You are KeyFrameAgent.\n" +
	"Task: Write image-generation prompts for keyframes in THREE LAYERS.\n\n" +
	"=== THREE-LAYER IMAGE ARCHITECTURE ===\n\n" +
	"Layer 1 — global_anchors (ONE per unique entity):\n" +
	"  Standalone text-to-image prompt capturing the entity's canonical\n" +
	"  appearance / identity. Be EXTREMELY specific about physical traits,\n" +
	"  clothing, colours, architecture, materials, atmosphere.\n\n" +
	"Layer 2 — stability_keyframes (per-scene anchors):\n" +
	"  Edit instructions that adapt the global anchor to THIS scene's\n" +
	"  context (lighting, time of day, weather, mood). Focus on WHAT\n" +
	"  CHANGES; identity / clothing MUST stay consistent.\n\n" +
	"Layer 3 — shot keyframes:\n" +
	"  Edit instructions that compose the final frame. Describe camera\n" +
	"  angle, composition, action, expression.\n\n" +
	"=== PROMPT WRITING RULES ===\n" +
	"- Layer 1: standalone text descriptions (no 'edit this image').\n" +
	"- Layer 2: edit instructions ('Show this character under warm sunset…').\n" +
	"- Layer 3: edit instructions ('Medium shot: character reaches…').\n" +
	"- ALL prompts must be in English.\n\n" +
	"Output Rules:\n" +
	"- Return JSON only, no markdown, no code fences.\n" +
	"- If something is unknown, use empty string, not null.\n" +
	"- Every prompt_summary MUST be non-empty and detailed."

const defaultImageFormat = "png"

// Input is KeyFrameAgent's input payload.
type Input struct {
	ProjectID   string
	DraftID     string
	Storyboard  map[string]any // the full storyboard asset dict (meta+content)
	ImageFormat string
}

// Agent writes keyframe image prompts via skeleton-first generation with a
// parallel creative fill.
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
		return nil, apperrors.NewValidationError("input", "keyframe agent requires *keyframe.Input")
	}

	content := a.buildSkeleton(in)
	if content == nil {
		return nil, apperrors.NewStructureError("keyframe agent requires a non-empty storyboard with scenes")
	}

	if err := a.fillSkeleton(ctx, in, content); err != nil {
		return nil, err
	}

	recomputeMetrics(content)
	return map[string]any{
		"content": content,
		"metrics": metricsOf(content),
	}, nil
}

func placeholderImage(format string) map[string]any {
	return map[string]any{
		"asset_id": "",
		"uri":      "placeholder",
		"width":    1024,
		"height":   576,
		"format":   format,
	}
}

// buildSkeleton walks the storyboard to pre-build every structural field —
// ids, order, source refs, image placeholders — leaving prompt_summary
// fields empty for the LLM to fill.
func (a *Agent) buildSkeleton(in *Input) map[string]any {
	sb := in.Storyboard
	sbContent, _ := sb["content"].(map[string]any)
	sbScenes := common.SliceAt(sbContent, "scenes")
	sbMeta, _ := sb["meta"].(map[string]any)
	sbAssetID, _ := sbMeta["asset_id"].(string)
	imgFmt := in.ImageFormat
	if imgFmt == "" {
		imgFmt = defaultImageFormat
	}

	if len(sbScenes) == 0 {
		return nil
	}

	var charOrder, locOrder []string
	charSeen := make(map[string]bool)
	locSeen := make(map[string]bool)
	propOrder := make([]string, 0)
	propNames := make(map[string]string) // prop_id -> prop_name

	for _, sbScene := range sbScenes {
		pack, _ := sbScene["scene_consistency_pack"].(map[string]any)
		locLock, _ := pack["location_lock"].(map[string]any)
		if lid, _ := locLock["location_id"].(string); lid != "" && !locSeen[lid] {
			locSeen[lid] = true
			locOrder = append(locOrder, lid)
		}
		for _, ch := range common.SliceAt(pack, "character_locks") {
			if cid, _ := ch["character_id"].(string); cid != "" && !charSeen[cid] {
				charSeen[cid] = true
				charOrder = append(charOrder, cid)
			}
		}
		for _, pr := range common.SliceAt(pack, "props_lock") {
			pid, _ := pr["prop_id"].(string)
			pname, _ := pr["prop_name"].(string)
			if pid == "" {
				continue
			}
			if _, ok := propNames[pid]; !ok {
				propOrder = append(propOrder, pid)
			}
			propNames[pid] = pname
		}
	}

	globalChars := make([]any, 0, len(charOrder))
	for _, cid := range charOrder {
		e := placeholderImage(imgFmt)
		e["entity_type"] = "character"
		e["entity_id"] = cid
		e["display_name"] = ""
		e["purpose"] = "identity_anchor"
		e["keyframe_id"] = "kf_global_" + cid
		e["prompt_summary"] = ""
		globalChars = append(globalChars, e)
	}
	globalLocs := make([]any, 0, len(locOrder))
	for _, lid := range locOrder {
		e := placeholderImage(imgFmt)
		e["entity_type"] = "location"
		e["entity_id"] = lid
		e["display_name"] = ""
		e["purpose"] = "style_anchor"
		e["keyframe_id"] = "kf_global_" + lid
		e["prompt_summary"] = ""
		globalLocs = append(globalLocs, e)
	}
	globalProps := make([]any, 0, len(propOrder))
	for _, pid := range propOrder {
		e := placeholderImage(imgFmt)
		e["entity_type"] = "prop"
		e["entity_id"] = pid
		e["display_name"] = propNames[pid]
		e["purpose"] = "prop_anchor"
		e["keyframe_id"] = "kf_global_" + pid
		e["prompt_summary"] = ""
		globalProps = append(globalProps, e)
	}

	kfGlobalCounter := 1
	scenes := make([]any, 0, len(sbScenes))

	for sceneOrder, sbScene := range sbScenes {
		sceneID, _ := sbScene["scene_id"].(string)
		if sceneID == "" {
			sceneID = fmt.Sprintf("sc_%03d", sceneOrder+1)
		}
		pack, _ := sbScene["scene_consistency_pack"].(map[string]any)
		locLock, _ := pack["location_lock"].(map[string]any)
		sceneLocID, _ := locLock["location_id"].(string)

		var sceneCharIDs []string
		for _, ch := range common.SliceAt(pack, "character_locks") {
			if cid, _ := ch["character_id"].(string); cid != "" {
				sceneCharIDs = append(sceneCharIDs, cid)
			}
		}
		type propRef struct{ id, name string }
		var sceneProps []propRef
		for _, pr := range common.SliceAt(pack, "props_lock") {
			pid, _ := pr["prop_id"].(string)
			if pid != "" {
				sceneProps = append(sceneProps, propRef{id: pid, name: propNames[pid]})
			}
		}

		stabChars := make([]any, 0, len(sceneCharIDs))
		for _, cid := range sceneCharIDs {
			e := placeholderImage(imgFmt)
			e["entity_type"] = "character"
			e["entity_id"] = cid
			e["display_name"] = ""
			e["purpose"] = "scene_adaptation"
			e["keyframe_id"] = fmt.Sprintf("kf_%s_%s", cid, sceneID)
			e["prompt_summary"] = ""
			stabChars = append(stabChars, e)
		}
		var stabLocs []any
		if sceneLocID != "" {
			e := placeholderImage(imgFmt)
			e["entity_type"] = "location"
			e["entity_id"] = sceneLocID
			e["display_name"] = ""
			e["purpose"] = "scene_adaptation"
			e["keyframe_id"] = fmt.Sprintf("kf_%s_%s", sceneLocID, sceneID)
			e["prompt_summary"] = ""
			stabLocs = []any{e}
		}
		stabProps := make([]any, 0, len(sceneProps))
		for _, p := range sceneProps {
			e := placeholderImage(imgFmt)
			e["entity_type"] = "prop"
			e["entity_id"] = p.id
			e["display_name"] = p.name
			e["purpose"] = "scene_adaptation"
			e["keyframe_id"] = fmt.Sprintf("kf_%s_%s", p.id, sceneID)
			e["prompt_summary"] = ""
			stabProps = append(stabProps, e)
		}

		shotList := make([]any, 0)
		for shotOrder, sbShot := range common.SliceAt(sbScene, "shots") {
			shotID, _ := sbShot["shot_id"].(string)
			kfPlan, _ := sbShot["keyframe_plan"].(map[string]any)
			kfCount := common.AsInt(kfPlan["keyframe_count"])
			if kfCount < 1 {
				kfCount = 1
			}

			keyframes := make([]any, 0, kfCount)
			for ki := 1; ki <= kfCount; ki++ {
				kf := placeholderImage(imgFmt)
				kf["keyframe_id"] = fmt.Sprintf("kf_%03d", kfGlobalCounter)
				kf["order"] = ki
				kf["prompt_summary"] = ""
				kf["constraints_applied"] = map[string]any{
					"characters_in_frame": sbShot["characters_in_frame"],
					"props_in_frame":      sbShot["props_in_frame"],
				}
				keyframes = append(keyframes, kf)
				kfGlobalCounter++
			}

			estDur := sbShot["estimated_duration_sec"]
			if estDur == nil {
				estDur = 3.0
			}
			shotList = append(shotList, map[string]any{
				"shot_id": shotID,
				"order":   shotOrder + 1,
				"source": map[string]any{
					"storyboard_shot_id": shotID,
					"linked_blocks":      sbShot["linked_blocks"],
				},
				"estimated_duration_sec": estDur,
				"keyframes":              keyframes,
			})
		}

		scenes = append(scenes, map[string]any{
			"scene_id": sceneID,
			"order":    sceneOrder + 1,
			"source": map[string]any{
				"storyboard_asset_id": sbAssetID,
				"storyboard_scene_id": sceneID,
			},
			"stability_keyframes": map[string]any{
				"characters": stabChars,
				"locations":  stabLocs,
				"props":      stabProps,
			},
			"shots": shotList,
		})
	}

	return map[string]any{
		"global_anchors": map[string]any{
			"characters": globalChars,
			"locations":  globalLocs,
			"props":      globalProps,
		},
		"scenes": scenes,
	}
}

// fillSkeleton fires 1 global-anchors call plus one call per scene,
// concurrently, then merges every prompt_summary back into content.
func (a *Agent) fillSkeleton(ctx context.Context, in *Input, content map[string]any) error {
	sbContent, _ := in.Storyboard["content"].(map[string]any)
	globalAnchors, _ := content["global_anchors"].(map[string]any)
	scenes := common.SliceAt(content, "scenes")
	sbScenes := common.SliceAt(sbContent, "scenes")

	results := make([]string, 1+len(scenes))
	errs := make([]error, 1+len(scenes))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := a.complete(ctx, a.buildGlobalPrompt(sbContent, globalAnchors))
		if err != nil {
			errs[0] = fmt.Errorf("global anchors: %w", err)
			return
		}
		results[0] = resp
	}()

	for i := range scenes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			var sbScene map[string]any
			if i < len(sbScenes) {
				sbScene = sbScenes[i]
			}
			resp, err := a.complete(ctx, a.buildScenePrompt(sbScene, scenes[i], sbContent))
			if err != nil {
				errs[i+1] = fmt.Errorf("scene %d: %w", i, err)
				return
			}
			results[i+1] = resp
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return apperrors.NewAdapterError("keyframe_agent", err)
		}
	}

	var globalCreative map[string]any
	if err := json.Unmarshal([]byte(common.ExtractJSON(results[0])), &globalCreative); err != nil {
		return apperrors.NewStructureError("keyframe agent returned non-JSON global-anchor fill: " + err.Error())
	}
	fillGlobal(globalAnchors, globalCreative)

	for i, scene := range scenes {
		var sceneCreative map[string]any
		if err := json.Unmarshal([]byte(common.ExtractJSON(results[i+1])), &sceneCreative); err != nil {
			return apperrors.NewStructureError(fmt.Sprintf("keyframe agent returned non-JSON fill for scene %d: %s", i, err.Error()))
		}
		fillScene(scene, sceneCreative)
	}
	return nil
}

func (a *Agent) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.LLM.Complete(ctx, llmadapter.Request{
		Model:       a.Model,
		Messages:    []llmadapter.Message{{Role: "system", Content: systemPrompt}, {Role: "user", Content: prompt}},
		MaxTokens:   4096,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func fillGlobal(globalAnchors map[string]any, creative map[string]any) {
	fillPromptSummaries(common.SliceAt(globalAnchors, "characters"), common.SliceAt(creative, "characters"))
	fillPromptSummaries(common.SliceAt(globalAnchors, "locations"), common.SliceAt(creative, "locations"))
	fillPromptSummaries(common.SliceAt(globalAnchors, "props"), common.SliceAt(creative, "props"))
}

func fillPromptSummaries(anchors, creative []map[string]any) {
	byID := make(map[string]string, len(creative))
	for _, c := range creative {
		eid, _ := c["entity_id"].(string)
		ps, _ := c["prompt_summary"].(string)
		byID[eid] = ps
	}
	for _, a := range anchors {
		eid, _ := a["entity_id"].(string)
		a["prompt_summary"] = byID[eid]
	}
}

func fillScene(scene map[string]any, creative map[string]any) {
	stab, _ := scene["stability_keyframes"].(map[string]any)
	stabCreative, _ := creative["stability_keyframes"].(map[string]any)
	fillPromptSummaries(common.SliceAt(stab, "characters"), common.SliceAt(stabCreative, "characters"))
	fillPromptSummaries(common.SliceAt(stab, "locations"), common.SliceAt(stabCreative, "locations"))
	fillPromptSummaries(common.SliceAt(stab, "props"), common.SliceAt(stabCreative, "props"))

	shotByID := make(map[string]map[string]any)
	for _, s := range common.SliceAt(creative, "shots") {
		sid, _ := s["shot_id"].(string)
		shotByID[sid] = s
	}
	for _, shot := range common.SliceAt(scene, "shots") {
		shotID, _ := shot["shot_id"].(string)
		shotFill := shotByID[shotID]
		kfByID := make(map[string]string)
		for _, kf := range common.SliceAt(shotFill, "keyframes") {
			kid, _ := kf["keyframe_id"].(string)
			ps, _ := kf["prompt_summary"].(string)
			kfByID[kid] = ps
		}
		for _, kf := range common.SliceAt(shot, "keyframes") {
			kid, _ := kf["keyframe_id"].(string)
			kf["prompt_summary"] = kfByID[kid]
		}
	}
}

func (a *Agent) buildGlobalPrompt(sbContent, globalAnchors map[string]any) string {
	fillTemplate := func(entries []map[string]any) string {
		var parts []string
		for _, e := range entries {
			eid, _ := e["entity_id"].(string)
			parts = append(parts, fmt.Sprintf(`    {"entity_id": "%s", "prompt_summary": "<FILL>"}`, eid))
		}
		return strings.Join(parts, ",\n")
	}
	template := "{\n  \"characters\": [\n" + fillTemplate(common.SliceAt(globalAnchors, "characters")) + "\n  ],\n" +
		"  \"locations\": [\n" + fillTemplate(common.SliceAt(globalAnchors, "locations")) + "\n  ],\n" +
		"  \"props\": [\n" + fillTemplate(common.SliceAt(globalAnchors, "props")) + "\n  ]\n}"

	return "Write Layer 1 (global anchor) prompt_summaries.\n" +
		"These are STANDALONE text-to-image prompts — detailed physical " +
		"descriptions of each entity's canonical appearance.\n\n" +
		extractStyleSection(sbContent) +
		fmt.Sprintf("=== ENTITY CONTEXT ===\n%s\n\n", gatherEntityContext(sbContent)) +
		"=== OUTPUT FORMAT ===\n" +
		"Replace every \"<FILL>\" with a detailed image-generation prompt.\n" +
		template + "\n\nReturn JSON only."
}

func (a *Agent) buildScenePrompt(sbScene, skelScene map[string]any, sbContent map[string]any) string {
	sceneID, _ := skelScene["scene_id"].(string)
	pack, _ := sbScene["scene_consistency_pack"].(map[string]any)

	var shotSummaries []string
	for _, sh := range common.SliceAt(sbScene, "shots") {
		packJSON, _ := json.Marshal(sh["camera"])
		shotSummaries = append(shotSummaries, fmt.Sprintf(
			"  %s: type=%v, visual_goal=%q, action_focus=%q, chars=%v, props=%v, camera=%s",
			sh["shot_id"], sh["shot_type"], strOf(sh["visual_goal"]), strOf(sh["action_focus"]),
			sh["characters_in_frame"], sh["props_in_frame"], string(packJSON)))
	}
	packJSON, _ := json.Marshal(pack)
	context := fmt.Sprintf("consistency_pack: %s\nshots:\n%s", string(packJSON), strings.Join(shotSummaries, "\n"))

	stab, _ := skelScene["stability_keyframes"].(map[string]any)
	fillTemplate := func(entries []map[string]any, indent string) string {
		var parts []string
		for _, e := range entries {
			eid, _ := e["entity_id"].(string)
			parts = append(parts, fmt.Sprintf(`%s{"entity_id": "%s", "prompt_summary": "<FILL>"}`, indent, eid))
		}
		return strings.Join(parts, ",\n")
	}

	var shotParts []string
	for _, shot := range common.SliceAt(skelScene, "shots") {
		shotID, _ := shot["shot_id"].(string)
		var kfEntries []string
		for _, kf := range common.SliceAt(shot, "keyframes") {
			kid, _ := kf["keyframe_id"].(string)
			kfEntries = append(kfEntries, fmt.Sprintf(`          {"keyframe_id": "%s", "prompt_summary": "<FILL>"}`, kid))
		}
		shotParts = append(shotParts, fmt.Sprintf("      {\"shot_id\": \"%s\", \"keyframes\": [\n%s\n      ]}", shotID, strings.Join(kfEntries, ",\n")))
	}

	template := "{\n  \"scene_id\": \"" + sceneID + "\",\n" +
		"  \"stability_keyframes\": {\n" +
		"    \"characters\": [\n" + fillTemplate(common.SliceAt(stab, "characters"), "      ") + "\n    ],\n" +
		"    \"locations\": [\n" + fillTemplate(common.SliceAt(stab, "locations"), "      ") + "\n    ],\n" +
		"    \"props\": [\n" + fillTemplate(common.SliceAt(stab, "props"), "      ") + "\n    ]\n" +
		"  },\n" +
		"  \"shots\": [\n" + strings.Join(shotParts, ",\n") + "\n  ]\n}"

	return fmt.Sprintf("Write prompt_summaries for scene %s.\n", sceneID) +
		"Layer 2 (stability_keyframes): edit instructions adapting global " +
		"anchors to this scene.\n" +
		"Layer 3 (shot keyframes): edit instructions for each frame.\n\n" +
		extractStyleSection(sbContent) +
		fmt.Sprintf("=== SCENE CONTEXT ===\n%s\n\n", context) +
		"=== OUTPUT FORMAT ===\n" +
		"Replace every \"<FILL>\" with a detailed image-generation prompt.\n" +
		template + "\n\nReturn JSON only."
}

// extractStyleSection builds the mandatory style directive from every
// scene's style_lock, deduplicated in first-seen order.
func extractStyleSection(sbContent map[string]any) string {
	var styleNotes, mustAvoid []string
	seenStyle := make(map[string]bool)
	seenAvoid := make(map[string]bool)
	for _, sbScene := range common.SliceAt(sbContent, "scenes") {
		pack, _ := sbScene["scene_consistency_pack"].(map[string]any)
		styleLock, _ := pack["style_lock"].(map[string]any)
		for _, n := range common.SliceOfStrings(styleLock["global_style_notes"]) {
			if !seenStyle[n] {
				seenStyle[n] = true
				styleNotes = append(styleNotes, n)
			}
		}
		for _, n := range common.SliceOfStrings(styleLock["must_avoid"]) {
			if !seenAvoid[n] {
				seenAvoid[n] = true
				mustAvoid = append(mustAvoid, n)
			}
		}
	}
	if len(styleNotes) == 0 && len(mustAvoid) == 0 {
		return ""
	}
	var parts []string
	if len(styleNotes) > 0 {
		parts = append(parts, "Style: "+strings.Join(styleNotes, "; "))
	}
	if len(mustAvoid) > 0 {
		parts = append(parts, "Must avoid: "+strings.Join(mustAvoid, "; "))
	}
	return "=== VISUAL STYLE (MANDATORY — apply to EVERY prompt_summary) ===\n" +
		strings.Join(parts, "\n") + "\n" +
		"Every prompt_summary MUST begin with the style directive above.\n" +
		"All images in this project must share the SAME visual style.\n\n"
}

// gatherEntityContext extracts character/location/prop descriptions from
// the storyboard's consistency packs, so the LLM knows what each entity
// looks like before writing its global anchor prompt.
func gatherEntityContext(sbContent map[string]any) string {
	chars := make(map[string][]string)
	var charOrder []string
	locs := make(map[string][]string)
	var locOrder []string
	type propInfo struct {
		name  string
		notes []string
	}
	props := make(map[string]*propInfo)
	var propOrder []string

	for _, sc := range common.SliceAt(sbContent, "scenes") {
		pack, _ := sc["scene_consistency_pack"].(map[string]any)
		for _, cl := range common.SliceAt(pack, "character_locks") {
			cid, _ := cl["character_id"].(string)
			if cid == "" {
				continue
			}
			if _, ok := chars[cid]; !ok {
				charOrder = append(charOrder, cid)
			}
			chars[cid] = append(chars[cid], common.SliceOfStrings(cl["identity_notes"])...)
			chars[cid] = append(chars[cid], common.SliceOfStrings(cl["wardrobe_notes"])...)
		}
		locLock, _ := pack["location_lock"].(map[string]any)
		lid, _ := locLock["location_id"].(string)
		if lid != "" {
			if _, ok := locs[lid]; !ok {
				locOrder = append(locOrder, lid)
			}
			locs[lid] = append(locs[lid], common.SliceOfStrings(locLock["environment_notes"])...)
		}
		for _, pl := range common.SliceAt(pack, "props_lock") {
			pid, _ := pl["prop_id"].(string)
			pname, _ := pl["prop_name"].(string)
			if pid == "" {
				continue
			}
			if _, ok := props[pid]; !ok {
				props[pid] = &propInfo{name: pname}
				propOrder = append(propOrder, pid)
			}
			props[pid].notes = append(props[pid].notes, common.SliceOfStrings(pl["must_keep"])...)
		}
	}

	var parts []string
	for _, cid := range charOrder {
		parts = append(parts, fmt.Sprintf("Character %s: %s", cid, strings.Join(dedupe(chars[cid]), "; ")))
	}
	for _, lid := range locOrder {
		parts = append(parts, fmt.Sprintf("Location %s: %s", lid, strings.Join(dedupe(locs[lid]), "; ")))
	}
	for _, pid := range propOrder {
		p := props[pid]
		parts = append(parts, fmt.Sprintf("Prop %s (%q): %s", pid, p.name, strings.Join(dedupe(p.notes), "; ")))
	}
	return strings.Join(parts, "\n")
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

func strOf(v any) string {
	s, _ := v.(string)
	return s
}

func recomputeMetrics(content map[string]any) {
	scenes := common.SliceAt(content, "scenes")
	common.NormalizeOrder(scenes)
	for _, scene := range scenes {
		shots := common.SliceAt(scene, "shots")
		common.NormalizeOrder(shots)
		for _, shot := range shots {
			common.NormalizeOrder(common.SliceAt(shot, "keyframes"))
		}
	}
}

func metricsOf(content map[string]any) map[string]any {
	scenes := common.SliceAt(content, "scenes")
	sceneCount := len(scenes)
	shotCount := 0
	kfCount := 0
	stabChar, stabLoc, stabProp := 0, 0, 0
	for _, scene := range scenes {
		shots := common.SliceAt(scene, "shots")
		shotCount += len(shots)
		for _, shot := range shots {
			kfCount += len(common.SliceAt(shot, "keyframes"))
		}
		stab, _ := scene["stability_keyframes"].(map[string]any)
		stabChar += len(common.SliceAt(stab, "characters"))
		stabLoc += len(common.SliceAt(stab, "locations"))
		stabProp += len(common.SliceAt(stab, "props"))
	}
	avgKf := 0.0
	if shotCount > 0 {
		avgKf = float64(kfCount) / float64(shotCount)
	}
	globalAnchors, _ := content["global_anchors"].(map[string]any)
	return map[string]any{
		"scene_count":                        sceneCount,
		"shot_count":                         shotCount,
		"keyframe_count_total":               kfCount,
		"avg_keyframes_per_shot":             avgKf,
		"global_character_anchor_count":      len(common.SliceAt(globalAnchors, "characters")),
		"global_location_anchor_count":       len(common.SliceAt(globalAnchors, "locations")),
		"global_prop_anchor_count":           len(common.SliceAt(globalAnchors, "props")),
		"stability_character_keyframe_count": stabChar,
		"stability_location_keyframe_count":  stabLoc,
		"stability_prop_keyframe_count":      stabProp,
	}
}
