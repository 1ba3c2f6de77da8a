package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

// VideoMaterializer implements descriptor.Materializer for the video
// layer: one clip per shot segment, assembled into a scene clip, then all
// scene clips assembled into the final video. Grounded in
// original_source/agents/video/materializer.py.
type VideoMaterializer struct {
	Videos mediaadapter.VideoService
}

// NewVideoMaterializer wires a VideoMaterializer around a video service.
func NewVideoMaterializer(videos mediaadapter.VideoService) *VideoMaterializer {
	return &VideoMaterializer{Videos: videos}
}

type clipTask struct {
	shotID string
	asset  map[string]any
	prompt string
	sysID  string
}

func (m *VideoMaterializer) Materialize(ctx context.Context, projectID string, assetDict map[string]any, assets map[string]any) ([]descriptor.MediaAsset, error) {
	var pending []descriptor.MediaAsset

	content := mapAt(assetDict, "content")
	scenes := sliceAt(content, "scenes")

	var sceneClipBytesList [][]byte

	for _, scene := range scenes {
		sceneID, _ := scene["scene_id"].(string)
		segments := sliceOfMaps(scene, "shot_segments")

		var tasks []clipTask
		for _, seg := range segments {
			shotID, _ := seg["shot_id"].(string)
			asset := mapAt(seg, "video_asset")
			tasks = append(tasks, clipTask{
				shotID: shotID,
				asset:  asset,
				prompt: fmt.Sprintf("Shot %s", shotID),
				sysID:  fmt.Sprintf("clip_%s", shotID),
			})
		}

		clipBytes := make([][]byte, len(tasks))
		var wg sync.WaitGroup
		for i, t := range tasks {
			wg.Add(1)
			go func(i int, t clipTask) {
				defer wg.Done()
				dur, _ := segments[i]["actual_duration_sec"].(float64)
				data, err := m.Videos.GenerateClip(ctx, t.prompt, nil, dur)
				if err != nil {
					slog.Error("shot clip generation failed", "scene", sceneID, "shot", t.shotID, "error", err)
					return
				}
				clipBytes[i] = data
			}(i, t)
		}
		wg.Wait()

		var validClips [][]byte
		for i, t := range tasks {
			if clipBytes[i] == nil {
				return nil, fmt.Errorf("video materialize: failed to generate clip for shot %s", t.shotID)
			}
			t.asset["asset_id"] = t.sysID
			ext, _ := t.asset["format"].(string)
			if ext == "" {
				ext = "mp4"
			}
			pending = append(pending, descriptor.MediaAsset{SysID: t.sysID, Data: clipBytes[i], Extension: ext, URIHolder: t.asset})
			validClips = append(validClips, clipBytes[i])
		}

		transitions := buildTransitionSpecs(scene)
		sceneClip, err := m.Videos.AssembleScene(ctx, validClips, transitions)
		if err != nil {
			return nil, fmt.Errorf("video materialize: scene %s assembly failed: %w", sceneID, err)
		}
		sceneAsset := mapAt(scene, "scene_clip_asset")
		sceneSysID := fmt.Sprintf("clip_%s", sceneID)
		sceneAsset["asset_id"] = sceneSysID
		sceneExt, _ := sceneAsset["format"].(string)
		if sceneExt == "" {
			sceneExt = "mp4"
		}
		pending = append(pending, descriptor.MediaAsset{SysID: sceneSysID, Data: sceneClip, Extension: sceneExt, URIHolder: sceneAsset})
		sceneClipBytesList = append(sceneClipBytesList, sceneClip)
	}

	final := mapAt(content, "final_video_asset")
	final["asset_id"] = "final_video"
	if len(sceneClipBytesList) > 0 {
		finalBytes, err := m.Videos.AssembleFinal(ctx, sceneClipBytesList)
		if err != nil {
			return nil, fmt.Errorf("video materialize: final assembly failed: %w", err)
		}
		finalExt, _ := final["format"].(string)
		if finalExt == "" {
			finalExt = "mp4"
		}
		pending = append(pending, descriptor.MediaAsset{SysID: "clip_final", Data: finalBytes, Extension: finalExt, URIHolder: final})
	}

	return pending, nil
}

func buildTransitionSpecs(scene map[string]any) []mediaadapter.TransitionSpec {
	var out []mediaadapter.TransitionSpec
	for _, tr := range sliceOfMaps(scene, "transition_plan") {
		ttype, _ := tr["transition_type"].(string)
		dur, _ := tr["duration_sec"].(float64)
		out = append(out, mediaadapter.TransitionSpec{Type: ttype, DurationSec: dur})
	}
	return out
}
