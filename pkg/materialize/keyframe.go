// Package materialize implements the post-LLM binary asset generation
// runtime — most notably the three-layer (plus backfill) keyframe
// consistency chain described in spec.md §4.6, grounded directly in
// original_source/agents/keyframe/materializer.py's KeyframeMaterializer.
//
// Each layer fans out with a goroutine per pending entity and a
// sync.WaitGroup barrier (the teacher's pkg/queue.WorkerPool fan-out
// shape), retrying the whole layer — not individual entities — up to
// maxLayerRetries times before the materialization fails outright.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

const maxLayerRetries = 10
const baseRetryDelay = 1 * time.Second
const defaultRetryMaxDelay = 30 * time.Second

// backoffDelay returns the capped exponential delay before retry attempt
// (attempt+1): base*2^attempt, clamped to maxDelay.
func backoffDelay(attempt int, maxDelay time.Duration) time.Duration {
	d := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt)))
	if d > maxDelay || d <= 0 {
		return maxDelay
	}
	return d
}

// waitBeforeRetry sleeps the backoff delay unless ctx is cancelled first.
func waitBeforeRetry(ctx context.Context, attempt int, maxDelay time.Duration) error {
	select {
	case <-time.After(backoffDelay(attempt, maxDelay)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReferenceImage is a user-provided image to inject as a pre-existing
// global anchor, bypassing Layer 1 generation for the matched entity.
type ReferenceImage struct {
	Label      string
	EntityType string
	ImageBytes []byte
}

// KeyframeMaterializer implements descriptor.Materializer for the
// story -> screenplay -> storyboard -> keyframe pipeline's image layer.
type KeyframeMaterializer struct {
	Images mediaadapter.ImageService

	// RetryMaxDelay caps the exponential backoff between whole-layer
	// retry attempts. Zero falls back to defaultRetryMaxDelay.
	RetryMaxDelay time.Duration
}

// NewKeyframeMaterializer wires a KeyframeMaterializer around an image
// service — the materializer factory signature spec.md §4.5 describes.
func NewKeyframeMaterializer(images mediaadapter.ImageService, retryMaxDelay time.Duration) *KeyframeMaterializer {
	if retryMaxDelay <= 0 {
		retryMaxDelay = defaultRetryMaxDelay
	}
	return &KeyframeMaterializer{Images: images, RetryMaxDelay: retryMaxDelay}
}

type kfTask struct {
	entityID  string
	kf        map[string]any
	prompt    string
	sysID     string
}

// Materialize runs the L0 -> L1 -> L1.5 -> L2 -> L3 chain and returns every
// produced MediaAsset for the caller to persist.
func (m *KeyframeMaterializer) Materialize(ctx context.Context, projectID string, assetDict map[string]any, assets map[string]any) ([]descriptor.MediaAsset, error) {
	var pending []descriptor.MediaAsset
	var pendingMu sync.Mutex
	addAsset := func(a descriptor.MediaAsset) {
		pendingMu.Lock()
		pending = append(pending, a)
		pendingMu.Unlock()
	}

	content := mapAt(assetDict, "content")
	scenes := sliceAt(content, "scenes")
	styleSuffix := buildStyleSuffix(assets)

	globalAnchors := mapAt(content, "global_anchors")
	globalImageBytes := make(map[string][]byte)

	if refImages := extractReferenceImages(assets); len(refImages) > 0 {
		injectReferenceImages(refImages, globalAnchors, globalImageBytes, assets, addAsset)
	}

	// Layer 1: global anchors.
	var l1Tasks []kfTask
	for _, list := range []string{"characters", "locations", "props"} {
		for _, kf := range sliceOfMaps(globalAnchors, list) {
			eid, _ := kf["entity_id"].(string)
			prompt, _ := kf["prompt_summary"].(string)
			if prompt == "" {
				continue
			}
			l1Tasks = append(l1Tasks, kfTask{entityID: eid, kf: kf, prompt: prompt + styleSuffix, sysID: fmt.Sprintf("img_%s_global", eid)})
		}
	}
	if err := m.runGenerateLayer(ctx, "L1", l1Tasks, globalImageBytes, addAsset); err != nil {
		return nil, err
	}

	// Layer 1.5: backfill scene-level entities missing from global anchors.
	var backfill []kfTask
	seenBackfill := make(map[string]bool)
	for _, scene := range scenes {
		stab := mapAt(scene, "stability_keyframes")
		for _, list := range []string{"characters", "locations", "props"} {
			for _, kf := range sliceOfMaps(stab, list) {
				eid, _ := kf["entity_id"].(string)
				prompt, _ := kf["prompt_summary"].(string)
				if prompt == "" || globalImageBytes[eid] != nil || seenBackfill[eid] {
					continue
				}
				seenBackfill[eid] = true
				backfill = append(backfill, kfTask{entityID: eid, kf: kf, prompt: prompt + styleSuffix, sysID: fmt.Sprintf("img_%s_global", eid)})
			}
		}
	}
	if len(backfill) > 0 {
		slog.Warn("backfilling scene-level entities missing from global anchors", "count", len(backfill))
		if err := m.runGenerateLayer(ctx, "L1.5", backfill, globalImageBytes, addAsset); err != nil {
			return nil, err
		}
	}

	// Layer 2: scene anchors, edited from the matching global anchor.
	type l2Task struct {
		kfTask
		sceneIdx int
		refKey   string
	}
	var l2Tasks []l2Task
	sceneStabs := make([]map[string]any, len(scenes))
	for si, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		stab := mapAt(scene, "stability_keyframes")
		sceneStabs[si] = stab
		for _, list := range []string{"characters", "locations", "props"} {
			for _, kf := range sliceOfMaps(stab, list) {
				eid, _ := kf["entity_id"].(string)
				prompt, _ := kf["prompt_summary"].(string)
				if prompt == "" {
					continue
				}
				if globalImageBytes[eid] == nil {
					slog.Warn("global anchor missing for scene entity, skipping", "entity", eid, "scene", sceneID)
					continue
				}
				sysID := fmt.Sprintf("img_%s_%s", eid, sceneID)
				l2Tasks = append(l2Tasks, l2Task{
					kfTask:   kfTask{entityID: eid, kf: kf, prompt: prompt + styleSuffix, sysID: sysID},
					sceneIdx: si,
					refKey:   eid,
				})
			}
		}
	}

	sceneImageBytes := make([]map[string][]byte, len(scenes))
	for i := range sceneImageBytes {
		sceneImageBytes[i] = make(map[string][]byte)
	}
	completedL2 := make(map[string]bool)

	for attempt := 1; attempt <= maxLayerRetries; attempt++ {
		var pendingTasks []l2Task
		for _, t := range l2Tasks {
			if !completedL2[t.sysID] {
				pendingTasks = append(pendingTasks, t)
			}
		}
		if len(pendingTasks) == 0 {
			break
		}
		slog.Info("generating scene anchors", "layer", "L2", "pending", len(pendingTasks), "attempt", attempt)

		results := make([][]byte, len(pendingTasks))
		var wg sync.WaitGroup
		for i, t := range pendingTasks {
			wg.Add(1)
			go func(i int, t l2Task) {
				defer wg.Done()
				data, err := m.Images.EditImage(ctx, t.prompt, [][]byte{globalImageBytes[t.refKey]})
				if err != nil {
					slog.Error("scene anchor edit failed", "layer", "L2", "sys_id", t.sysID, "error", err)
					return
				}
				results[i] = data
			}(i, t)
		}
		wg.Wait()

		for i, t := range pendingTasks {
			if results[i] == nil {
				continue
			}
			sceneImageBytes[t.sceneIdx][t.refKey] = results[i]
			completedL2[t.sysID] = true
			addAsset(descriptor.MediaAsset{SysID: t.sysID, Data: results[i], Extension: "png", URIHolder: t.kf})
		}

		stillPending := false
		for _, t := range pendingTasks {
			if !completedL2[t.sysID] {
				stillPending = true
				break
			}
		}
		if stillPending && attempt < maxLayerRetries {
			if err := waitBeforeRetry(ctx, attempt, m.RetryMaxDelay); err != nil {
				return nil, err
			}
		}
	}
	var failedL2 []string
	for _, t := range l2Tasks {
		if !completedL2[t.sysID] {
			failedL2 = append(failedL2, t.sysID)
		}
	}
	if len(failedL2) > 0 {
		return nil, fmt.Errorf("layer 2: failed to generate scene anchors after %d attempts: %v", maxLayerRetries, failedL2)
	}

	// Layer 3: shot keyframes, edited from the collected L2 references.
	type l3Task struct {
		kfTask
		refs [][]byte
	}
	var l3Tasks []l3Task
	for si, scene := range scenes {
		sceneImgs := sceneImageBytes[si]
		stab := sceneStabs[si]
		for _, shot := range sliceOfMaps(scene, "shots") {
			shotID, _ := shot["shot_id"].(string)
			refs := collectShotReferences(shot, sceneImgs, stab)
			counter := 0
			for _, kf := range sliceOfMaps(shot, "keyframes") {
				counter++
				prompt, _ := kf["prompt_summary"].(string)
				if prompt == "" {
					continue
				}
				if len(refs) == 0 {
					return nil, fmt.Errorf("layer 3: no scene-anchor references for shot %s; cannot generate keyframe img_%s_kf_%02d", shotID, shotID, counter)
				}
				sysID := fmt.Sprintf("img_%s_kf_%02d", shotID, counter)
				l3Tasks = append(l3Tasks, l3Task{
					kfTask: kfTask{kf: kf, prompt: prompt + styleSuffix, sysID: sysID},
					refs:   refs,
				})
			}
		}
	}

	completedL3 := make(map[string]bool)
	for attempt := 1; attempt <= maxLayerRetries; attempt++ {
		var pendingTasks []l3Task
		for _, t := range l3Tasks {
			if !completedL3[t.sysID] {
				pendingTasks = append(pendingTasks, t)
			}
		}
		if len(pendingTasks) == 0 {
			break
		}
		slog.Info("generating shot keyframes", "layer", "L3", "pending", len(pendingTasks), "attempt", attempt)

		results := make([][]byte, len(pendingTasks))
		var wg sync.WaitGroup
		for i, t := range pendingTasks {
			wg.Add(1)
			go func(i int, t l3Task) {
				defer wg.Done()
				data, err := m.Images.EditImage(ctx, t.prompt, t.refs)
				if err != nil {
					slog.Error("shot keyframe edit failed", "layer", "L3", "sys_id", t.sysID, "error", err)
					return
				}
				results[i] = data
			}(i, t)
		}
		wg.Wait()

		for i, t := range pendingTasks {
			if results[i] == nil {
				continue
			}
			completedL3[t.sysID] = true
			addAsset(descriptor.MediaAsset{SysID: t.sysID, Data: results[i], Extension: "png", URIHolder: t.kf})
		}

		stillPending := false
		for _, t := range pendingTasks {
			if !completedL3[t.sysID] {
				stillPending = true
				break
			}
		}
		if stillPending && attempt < maxLayerRetries {
			if err := waitBeforeRetry(ctx, attempt, m.RetryMaxDelay); err != nil {
				return nil, err
			}
		}
	}
	var failedL3 []string
	for _, t := range l3Tasks {
		if !completedL3[t.sysID] {
			failedL3 = append(failedL3, t.sysID)
		}
	}
	if len(failedL3) > 0 {
		return nil, fmt.Errorf("layer 3: failed to generate shot keyframes after %d attempts: %v", maxLayerRetries, failedL3)
	}

	return pending, nil
}

// runGenerateLayer drives a full retry-until-done text-to-image layer
// (L1/L1.5), mutating bytesByEntity in place.
func (m *KeyframeMaterializer) runGenerateLayer(ctx context.Context, tag string, tasks []kfTask, bytesByEntity map[string][]byte, addAsset func(descriptor.MediaAsset)) error {
	for attempt := 1; attempt <= maxLayerRetries; attempt++ {
		var pendingTasks []kfTask
		for _, t := range tasks {
			if bytesByEntity[t.entityID] == nil {
				pendingTasks = append(pendingTasks, t)
			}
		}
		if len(pendingTasks) == 0 {
			break
		}
		slog.Info("generating global anchors", "layer", tag, "pending", len(pendingTasks), "attempt", attempt)

		results := make([][]byte, len(pendingTasks))
		var wg sync.WaitGroup
		for i, t := range pendingTasks {
			wg.Add(1)
			go func(i int, t kfTask) {
				defer wg.Done()
				data, err := m.Images.TextToImage(ctx, t.prompt)
				if err != nil {
					slog.Error("global anchor generation failed", "layer", tag, "sys_id", t.sysID, "error", err)
					return
				}
				results[i] = data
			}(i, t)
		}
		wg.Wait()

		for i, t := range pendingTasks {
			if results[i] == nil {
				continue
			}
			bytesByEntity[t.entityID] = results[i]
			addAsset(descriptor.MediaAsset{SysID: t.sysID, Data: results[i], Extension: "png", URIHolder: t.kf})
		}

		stillPending := false
		for _, t := range pendingTasks {
			if bytesByEntity[t.entityID] == nil {
				stillPending = true
				break
			}
		}
		if stillPending && attempt < maxLayerRetries {
			if err := waitBeforeRetry(ctx, attempt, m.RetryMaxDelay); err != nil {
				return err
			}
		}
	}

	var failed []string
	for _, t := range tasks {
		if bytesByEntity[t.entityID] == nil {
			failed = append(failed, t.entityID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("layer %s: failed to generate global anchors after %d attempts: %v", tag, maxLayerRetries, failed)
	}
	return nil
}

func collectShotReferences(shot map[string]any, sceneImages map[string][]byte, stab map[string]any) [][]byte {
	var refs [][]byte
	seen := make(map[string]bool)

	var charIDs, propIDs []string
	for _, kf := range sliceOfMaps(shot, "keyframes") {
		constraints := mapAt(kf, "constraints_applied")
		charIDs = append(charIDs, stringSliceAt(constraints, "characters_in_frame")...)
		propIDs = append(propIDs, stringSliceAt(constraints, "props_in_frame")...)
	}

	for _, id := range charIDs {
		if b, ok := sceneImages[id]; ok && !seen[id] {
			refs = append(refs, b)
			seen[id] = true
		}
	}
	for _, loc := range sliceOfMaps(stab, "locations") {
		id, _ := loc["entity_id"].(string)
		if b, ok := sceneImages[id]; ok && !seen[id] {
			refs = append(refs, b)
			seen[id] = true
			break
		}
	}
	for _, id := range propIDs {
		if b, ok := sceneImages[id]; ok && !seen[id] {
			refs = append(refs, b)
			seen[id] = true
		}
	}
	return refs
}

func buildStyleSuffix(assets map[string]any) string {
	if assets == nil {
		return ""
	}
	sb := mapAt(assets, "storyboard")
	sbContent := mapAt(sb, "content")

	var styleNotes, mustAvoid []string
	seenStyle := make(map[string]bool)
	seenAvoid := make(map[string]bool)
	for _, scene := range sliceAt(sbContent, "scenes") {
		pack := mapAt(scene, "scene_consistency_pack")
		lock := mapAt(pack, "style_lock")
		for _, n := range stringSliceAt(lock, "global_style_notes") {
			if !seenStyle[n] {
				seenStyle[n] = true
				styleNotes = append(styleNotes, n)
			}
		}
		for _, n := range stringSliceAt(lock, "must_avoid") {
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
		parts = append(parts, "Visual style: "+strings.Join(styleNotes, "; ")+".")
	}
	if len(mustAvoid) > 0 {
		parts = append(parts, "Do NOT use: "+strings.Join(mustAvoid, "; ")+".")
	}
	return "\n" + strings.Join(parts, " ")
}

func extractReferenceImages(assets map[string]any) []ReferenceImage {
	raw, ok := assets["reference_images"].([]any)
	if !ok {
		return nil
	}
	out := make([]ReferenceImage, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		entityType, _ := m["entity_type"].(string)
		data, _ := m["image_bytes"].([]byte)
		out = append(out, ReferenceImage{Label: label, EntityType: entityType, ImageBytes: data})
	}
	return out
}

var typeToCategory = map[string]string{
	"character": "characters",
	"location":  "locations",
	"prop":      "props",
}

// injectReferenceImages matches user-provided reference images to global
// anchor entities (spec.md §4.6's L0).
func injectReferenceImages(refImages []ReferenceImage, globalAnchors map[string]any, globalImageBytes map[string][]byte, assets map[string]any, addAsset func(descriptor.MediaAsset)) {
	blueprintText := make(map[string]string)
	blueprint := mapAt(assets, "story_blueprint")
	bpContent := mapAt(blueprint, "content")
	for _, ch := range sliceOfMaps(bpContent, "cast") {
		cid, _ := ch["character_id"].(string)
		if cid == "" {
			continue
		}
		blueprintText[cid] = strings.ToLower(strings.Join([]string{
			strOf(ch["name"]), strOf(ch["role"]), strOf(ch["profile"]),
			strOf(ch["motivation"]), strOf(ch["flaw"]),
		}, " "))
	}
	for _, loc := range sliceOfMaps(bpContent, "locations") {
		lid, _ := loc["location_id"].(string)
		if lid == "" {
			continue
		}
		blueprintText[lid] = strings.ToLower(strings.Join([]string{strOf(loc["name"]), strOf(loc["description"])}, " "))
	}

	type entityEntry struct {
		kf       map[string]any
		category string
	}
	entityLookup := make(map[string]entityEntry)
	for _, list := range []string{"characters", "locations", "props"} {
		for _, kf := range sliceOfMaps(globalAnchors, list) {
			eid, _ := kf["entity_id"].(string)
			if eid != "" {
				entityLookup[eid] = entityEntry{kf: kf, category: list}
			}
		}
	}

	alreadyMatched := make(map[string]bool)
	matchedCount := 0

	for _, ref := range refImages {
		if ref.Label == "" || len(ref.ImageBytes) == 0 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(ref.Label, "_", " ")))
		targetCategory := typeToCategory[ref.EntityType]

		var matchedEID string
		// Deterministic order for reproducible matching across runs.
		eids := make([]string, 0, len(entityLookup))
		for eid := range entityLookup {
			eids = append(eids, eid)
		}
		sort.Strings(eids)
		for _, eid := range eids {
			entry := entityLookup[eid]
			if alreadyMatched[eid] {
				continue
			}
			if targetCategory != "" && entry.category != targetCategory {
				continue
			}
			searchable := strings.ToLower(strings.Join([]string{
				eid, strOf(entry.kf["prompt_summary"]), strOf(entry.kf["name"]), strOf(entry.kf["description"]), blueprintText[eid],
			}, " "))
			if strings.Contains(searchable, label) {
				matchedEID = eid
				break
			}
		}

		if matchedEID == "" && targetCategory != "" {
			var candidates []string
			for _, eid := range eids {
				if entityLookup[eid].category == targetCategory && !alreadyMatched[eid] {
					candidates = append(candidates, eid)
				}
			}
			if len(candidates) == 1 {
				matchedEID = candidates[0]
			}
		}

		if matchedEID == "" {
			slog.Warn("no global anchor match for reference image", "label", ref.Label, "entity_type", ref.EntityType)
			continue
		}
		if globalImageBytes[matchedEID] != nil {
			continue
		}

		sysID := fmt.Sprintf("img_%s_global", matchedEID)
		kf := entityLookup[matchedEID].kf
		addAsset(descriptor.MediaAsset{SysID: sysID, Data: ref.ImageBytes, Extension: "png", URIHolder: kf})
		globalImageBytes[matchedEID] = ref.ImageBytes
		alreadyMatched[matchedEID] = true
		matchedCount++
	}
	slog.Info("reference image injection complete", "matched", matchedCount, "total", len(refImages))
}

func strOf(v any) string {
	s, _ := v.(string)
	return s
}

func mapAt(m map[string]any, key string) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	v, ok := m[key].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return v
}

func sliceAt(m map[string]any, key string) []map[string]any {
	return sliceOfMaps(m, key)
}

func sliceOfMaps(m map[string]any, key string) []map[string]any {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if mv, ok := v.(map[string]any); ok {
			out = append(out, mv)
		}
	}
	return out
}

func stringSliceAt(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
