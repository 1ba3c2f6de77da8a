package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// storyforgeYAML mirrors the top-level shape of storyforge.yaml.
type storyforgeYAML struct {
	Defaults       *Defaults                      `yaml:"defaults"`
	Server         *ServerConfig                  `yaml:"server"`
	Workspace      *WorkspaceConfig               `yaml:"workspace"`
	Retention      *RetentionConfig               `yaml:"retention"`
	LLMProviders   map[string]LLMProviderConfig   `yaml:"llm_providers"`
	MediaProviders map[string]MediaProviderConfig `yaml:"media_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading, mirroring
// the teacher's Initialize(ctx, configDir) shape.
//
// Steps:
//  1. Load storyforge.yaml from configDir (env-var expanded)
//  2. Merge built-in + user-defined provider maps
//  3. Resolve defaults/server/workspace/retention (YAML overrides built-ins)
//  4. Build registries
//  5. Validate
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"llm_providers", stats.LLMProviders,
		"media_providers", stats.MediaProviders)
	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	raw, err := loadYAML(configDir, "storyforge.yaml")
	if err != nil {
		return nil, NewLoadError("storyforge.yaml", err)
	}

	builtin := getBuiltinConfig()
	llmProviders := mergeLLMProviders(builtin.LLMProviders, raw.LLMProviders)
	mediaProviders := mergeMediaProviders(builtin.MediaProviders, raw.MediaProviders)

	defaults := raw.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.LLMProvider == "" {
		defaults.LLMProvider = builtin.DefaultLLMProvider
	}
	if defaults.PollingInterval == 0 {
		defaults.PollingInterval = defaultPollingIntervalSeconds
	}
	if defaults.RetryMaxDelay == 0 {
		defaults.RetryMaxDelay = defaultRetryMaxDelaySeconds
	}

	server := DefaultServerConfig()
	if raw.Server != nil {
		if err := mergo.Merge(server, raw.Server, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge server config: %w", err)
		}
	}

	workspace := DefaultWorkspaceConfig()
	if raw.Workspace != nil {
		if err := mergo.Merge(workspace, raw.Workspace, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge workspace config: %w", err)
		}
	}

	retention := DefaultRetentionConfig()
	if raw.Retention != nil {
		if err := mergo.Merge(retention, raw.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	return &Config{
		configDir:             configDir,
		Defaults:              defaults,
		Server:                server,
		Workspace:             workspace,
		Retention:             retention,
		LLMProviderRegistry:   NewLLMProviderRegistry(llmProviders),
		MediaProviderRegistry: NewMediaProviderRegistry(mediaProviders),
	}, nil
}

func loadYAML(configDir, filename string) (*storyforgeYAML, error) {
	path := filepath.Join(configDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	data = ExpandEnv(data)

	var cfg storyforgeYAML
	cfg.LLMProviders = make(map[string]LLMProviderConfig)
	cfg.MediaProviders = make(map[string]MediaProviderConfig)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &cfg, nil
}
