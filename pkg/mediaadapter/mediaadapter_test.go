package mediaadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizingImageServicePassesThroughSmallImage(t *testing.T) {
	mock := &MockImageService{}
	svc := NewNormalizingImageService(mock, 64)

	data, err := svc.TextToImage(context.Background(), "a red circle")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNormalizingImageServiceRejectsUndecodableBytes(t *testing.T) {
	svc := NewNormalizingImageService(stubRawService{}, 64)
	_, err := svc.TextToImage(context.Background(), "prompt")
	assert.Error(t, err)
}

type stubRawService struct{}

func (stubRawService) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	return []byte("not an image"), nil
}
func (stubRawService) EditImage(ctx context.Context, prompt string, seeds [][]byte) ([]byte, error) {
	return []byte("not an image"), nil
}
