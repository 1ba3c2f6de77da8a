// Package mediaadapter narrows image/video/audio generation services down
// to the three interfaces materializers call, plus a deterministic mock
// used by tests and a default adapter that validates/normalizes generated
// images via github.com/disintegration/imaging (grounded in
// vanducng-goclaw's go.mod, which carries imaging as its image-processing
// dependency).
package mediaadapter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
)

// ImageService generates and edits images from text prompts plus optional
// seed bytes (for edit calls seeded by prior layer output, spec.md §4.6).
type ImageService interface {
	TextToImage(ctx context.Context, prompt string) ([]byte, error)
	EditImage(ctx context.Context, prompt string, seeds [][]byte) ([]byte, error)
}

// VideoService generates per-shot clips and assembles them into scenes and
// a final cut — three distinct concerns, not one, since assembly (applying
// transitions, concatenating) is a different operation from clip generation.
type VideoService interface {
	GenerateClip(ctx context.Context, prompt string, seeds [][]byte, durationSec float64) ([]byte, error)
	AssembleScene(ctx context.Context, clips [][]byte, transitions []TransitionSpec) ([]byte, error)
	AssembleFinal(ctx context.Context, sceneClips [][]byte) ([]byte, error)
}

// TransitionSpec describes how two consecutive shot clips join during
// scene assembly.
type TransitionSpec struct {
	Type        string
	DurationSec float64
}

// AudioService generates narration (TTS), music, and ambience, and mixes
// them into per-scene and final tracks.
type AudioService interface {
	GenerateSpeech(ctx context.Context, text, voice string) ([]byte, error)
	GenerateMusic(ctx context.Context, mood string, durationSec float64) ([]byte, error)
	GenerateAmbience(ctx context.Context, description string, durationSec float64) ([]byte, error)
	MixSceneAudio(ctx context.Context, narration [][]byte, music, ambience []byte, durationSec float64) ([]byte, error)
	AssembleFinal(ctx context.Context, sceneMixes [][]byte) ([]byte, error)
}

// NormalizingImageService wraps an underlying ImageService and validates +
// normalizes every image it returns: decodes it, re-encodes as PNG, and
// fits it within maxDim on its longest edge. A service that returns
// undecodable bytes is treated as an adapter failure — normalization is the
// only place materialize-layer output touches real image decoding.
type NormalizingImageService struct {
	Inner  ImageService
	MaxDim int
}

// NewNormalizingImageService wraps inner with a maxDim-bounded normalizer.
func NewNormalizingImageService(inner ImageService, maxDim int) *NormalizingImageService {
	if maxDim <= 0 {
		maxDim = 2048
	}
	return &NormalizingImageService{Inner: inner, MaxDim: maxDim}
}

func (n *NormalizingImageService) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	data, err := n.Inner.TextToImage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return n.normalize(data)
}

func (n *NormalizingImageService) EditImage(ctx context.Context, prompt string, seeds [][]byte) ([]byte, error) {
	data, err := n.Inner.EditImage(ctx, prompt, seeds)
	if err != nil {
		return nil, err
	}
	return n.normalize(data)
}

func (n *NormalizingImageService) normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewAdapterError("image-normalize", fmt.Errorf("undecodable image output: %w", err))
	}
	bounds := img.Bounds()
	if bounds.Dx() > n.MaxDim || bounds.Dy() > n.MaxDim {
		img = imaging.Fit(img, n.MaxDim, n.MaxDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.NewAdapterError("image-normalize", err)
	}
	return buf.Bytes(), nil
}
