package mediaadapter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// MockImageService fails its first FailFirstN calls and returns a small
// deterministic PNG for every later call — used by materializer tests so the
// keyframe pipeline's retry/assembly logic can be exercised without a real
// image backend.
type MockImageService struct {
	FailFirstN int
	calls      int
}

func (m *MockImageService) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	return m.generate(prompt)
}

func (m *MockImageService) EditImage(ctx context.Context, prompt string, seeds [][]byte) ([]byte, error) {
	return m.generate(prompt)
}

func (m *MockImageService) generate(prompt string) ([]byte, error) {
	m.calls++
	if m.calls <= m.FailFirstN {
		return nil, fmt.Errorf("mock image service: simulated failure %d", m.calls)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: byte(len(prompt) % 256), G: 128, B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MockAudioService returns deterministic placeholder bytes for narration,
// music, ambience, and mixing — used by materializer tests.
type MockAudioService struct{}

func (MockAudioService) GenerateSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-TTS[%s]:%s", voice, text)), nil
}

func (MockAudioService) GenerateMusic(ctx context.Context, mood string, durationSec float64) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-MUSIC[%s]:%.2fs", mood, durationSec)), nil
}

func (MockAudioService) GenerateAmbience(ctx context.Context, description string, durationSec float64) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-AMBIENCE[%s]:%.2fs", description, durationSec)), nil
}

func (MockAudioService) MixSceneAudio(ctx context.Context, narration [][]byte, music, ambience []byte, durationSec float64) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("MOCK-MIX[%d narration tracks, music=%v, ambience=%v]:%.2fs", len(narration), music != nil, ambience != nil, durationSec))
	return buf.Bytes(), nil
}

func (MockAudioService) AssembleFinal(ctx context.Context, sceneMixes [][]byte) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-AUDIO-FINAL[%d scenes]", len(sceneMixes))), nil
}

// MockVideoService returns deterministic placeholder bytes for clip
// generation and assembly — used by materializer tests.
type MockVideoService struct{}

func (MockVideoService) GenerateClip(ctx context.Context, prompt string, seeds [][]byte, durationSec float64) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-CLIP[%d seeds]:%s:%.2fs", len(seeds), prompt, durationSec)), nil
}

func (MockVideoService) AssembleScene(ctx context.Context, clips [][]byte, transitions []TransitionSpec) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-SCENE[%d clips, %d transitions]", len(clips), len(transitions))), nil
}

func (MockVideoService) AssembleFinal(ctx context.Context, sceneClips [][]byte) ([]byte, error) {
	return []byte(fmt.Sprintf("MOCK-VIDEO-FINAL[%d scenes]", len(sceneClips))), nil
}
