package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storyforge.yaml"), []byte(content), 0o644))
}

func TestInitializeLoadsMergesAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
defaults:
  llm_provider: openai
llm_providers:
  openai:
    type: openai
    model: gpt-4o-mini
    max_tokens: 2000
media_providers:
  default_image:
    kind: image
    provider: mock
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Defaults.LLMProvider)
	assert.Equal(t, 2.0, cfg.Defaults.PollingInterval)
	assert.Equal(t, 30.0, cfg.Defaults.RetryMaxDelay)

	p, err := cfg.GetLLMProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, LLMProviderTypeOpenAI, p.Type)

	m, err := cfg.GetMediaProvider("default_image")
	require.NoError(t, err)
	assert.Equal(t, MediaServiceImage, m.Kind)
}

func TestInitializeRejectsUnknownDefaultProvider(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
defaults:
  llm_provider: ghost
`)
	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestInitializeMissingFileIsLoadError(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestInitializeExpandsEnvVarsInYAML(t *testing.T) {
	os.Setenv("STORYFORGE_TEST_MODEL", "gpt-4o")
	defer os.Unsetenv("STORYFORGE_TEST_MODEL")

	dir := t.TempDir()
	writeConfigFile(t, dir, `
llm_providers:
  openai:
    type: openai
    model: ${STORYFORGE_TEST_MODEL}
`)
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	p, err := cfg.GetLLMProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.Model)
}
