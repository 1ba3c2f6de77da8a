package materialize

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/mediaadapter"
)

// AudioMaterializer implements descriptor.Materializer for the audio
// layer: TTS narration, music, ambience, per-scene mixing, and final
// assembly, grounded in
// original_source/dynamic-task-stack/.../audio/materializer.py.
type AudioMaterializer struct {
	Audio mediaadapter.AudioService
}

// NewAudioMaterializer wires an AudioMaterializer around an audio service.
func NewAudioMaterializer(audio mediaadapter.AudioService) *AudioMaterializer {
	return &AudioMaterializer{Audio: audio}
}

var ttsVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// speakerToVoice deterministically assigns the same voice to the same
// speaker across a run, via an FNV hash (Python used the built-in hash()).
func speakerToVoice(speaker string) string {
	if speaker == "" {
		return "alloy"
	}
	h := fnv.New32a()
	h.Write([]byte(speaker))
	return ttsVoices[int(h.Sum32())%len(ttsVoices)]
}

func (m *AudioMaterializer) Materialize(ctx context.Context, projectID string, assetDict map[string]any, assets map[string]any) ([]descriptor.MediaAsset, error) {
	var pending []descriptor.MediaAsset
	content := mapAt(assetDict, "content")
	var sceneMixBytesList [][]byte

	for _, scene := range sliceOfMaps(content, "scenes") {
		sceneID, _ := scene["scene_id"].(string)
		var narrationBytesList [][]byte

		narrCounter := 0
		for _, seg := range sliceOfMaps(scene, "narration_segments") {
			text, _ := seg["text"].(string)
			speaker, _ := seg["speaker"].(string)
			audioAsset := mapAt(seg, "audio_asset")

			narrCounter++
			sysSegID := fmt.Sprintf("aud_narr_%s_%02d", sceneID, narrCounter)
			audioAsset["asset_id"] = sysSegID

			if text == "" {
				continue
			}
			voice := speakerToVoice(speaker)
			data, err := m.Audio.GenerateSpeech(ctx, text, voice)
			if err != nil {
				slog.Error("TTS failed", "segment", sysSegID, "error", err)
				continue
			}
			ext, _ := audioAsset["format"].(string)
			if ext == "" {
				ext = "wav"
			}
			pending = append(pending, descriptor.MediaAsset{SysID: sysSegID, Data: data, Extension: ext, URIHolder: audioAsset})
			narrationBytesList = append(narrationBytesList, data)
		}

		musicCue := mapAt(scene, "music_cue")
		musicAsset := mapAt(musicCue, "audio_asset")
		sysMusicID := fmt.Sprintf("aud_music_%s", sceneID)
		musicAsset["asset_id"] = sysMusicID
		var musicBytes []byte
		if len(musicCue) > 0 {
			mood, _ := musicCue["mood"].(string)
			if mood == "" {
				mood = "neutral"
			}
			start, _ := musicCue["start_sec"].(float64)
			end, _ := musicCue["end_sec"].(float64)
			data, err := m.Audio.GenerateMusic(ctx, mood, end-start)
			if err != nil {
				slog.Error("music generation failed", "cue", sysMusicID, "error", err)
			} else {
				pending = append(pending, descriptor.MediaAsset{SysID: sysMusicID, Data: data, Extension: "wav", URIHolder: musicAsset})
				musicBytes = data
			}
		}

		ambience := mapAt(scene, "ambience_bed")
		ambAsset := mapAt(ambience, "audio_asset")
		sysAmbID := fmt.Sprintf("aud_amb_%s", sceneID)
		ambAsset["asset_id"] = sysAmbID
		var ambienceBytes []byte
		if len(ambience) > 0 {
			description, _ := ambience["description"].(string)
			start, _ := ambience["start_sec"].(float64)
			end, _ := ambience["end_sec"].(float64)
			data, err := m.Audio.GenerateAmbience(ctx, description, end-start)
			if err != nil {
				slog.Error("ambience generation failed", "bed", sysAmbID, "error", err)
			} else {
				pending = append(pending, descriptor.MediaAsset{SysID: sysAmbID, Data: data, Extension: "wav", URIHolder: ambAsset})
				ambienceBytes = data
			}
		}

		mixInfo := mapAt(scene, "mix")
		mixAsset := mapAt(mixInfo, "audio_asset")
		sysMixID := fmt.Sprintf("aud_mix_%s", sceneID)
		mixAsset["asset_id"] = sysMixID
		if len(mixInfo) > 0 {
			duration, _ := scene["scene_duration_sec"].(float64)
			data, err := m.Audio.MixSceneAudio(ctx, narrationBytesList, musicBytes, ambienceBytes, duration)
			if err != nil {
				slog.Error("scene mix failed", "mix", sysMixID, "error", err)
			} else {
				pending = append(pending, descriptor.MediaAsset{SysID: sysMixID, Data: data, Extension: "wav", URIHolder: mixAsset})
				sceneMixBytesList = append(sceneMixBytesList, data)
			}
		}
	}

	final := mapAt(content, "final_audio_asset")
	final["asset_id"] = "aud_final"
	if len(sceneMixBytesList) > 0 {
		data, err := m.Audio.AssembleFinal(ctx, sceneMixBytesList)
		if err != nil {
			slog.Error("final audio assembly failed", "error", err)
		} else {
			pending = append(pending, descriptor.MediaAsset{SysID: "aud_final", Data: data, Extension: "wav", URIHolder: final})
		}
	}

	slog.Info("all audio tracks materialized", "project_id", projectID)
	return pending, nil
}
