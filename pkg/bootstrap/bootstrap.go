// Package bootstrap builds the shared process graph — config, stores,
// LLM client, and agent registry — that both cmd/server and cmd/director
// assemble identically before diverging into an HTTP listener or a poll
// loop, mirroring how the teacher's cmd/tarsy/main.go wires pkg/config,
// pkg/database, and pkg/services in one place before branching into
// route registration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/agents/audio"
	"github.com/storyforge-ai/storyforge/pkg/agents/keyframe"
	"github.com/storyforge-ai/storyforge/pkg/agents/screenplay"
	"github.com/storyforge-ai/storyforge/pkg/agents/story"
	"github.com/storyforge-ai/storyforge/pkg/agents/storyboard"
	"github.com/storyforge-ai/storyforge/pkg/agents/video"
	"github.com/storyforge-ai/storyforge/pkg/assistant"
	"github.com/storyforge-ai/storyforge/pkg/config"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
	"github.com/storyforge-ai/storyforge/pkg/llmadapter"
	"github.com/storyforge-ai/storyforge/pkg/messages"
	"github.com/storyforge-ai/storyforge/pkg/registry"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

// App is the fully wired process graph shared by every entry point.
type App struct {
	Config    *config.Config
	LLM       llmadapter.Client
	Workspace *workspace.Workspace
	Tasks     *taskstack.Store
	Messages  *messages.Store
	Execs     *execstore.Store
	Registry  *registry.Registry
	Assistant *assistant.Service
}

// Build loads configuration from configDir and wires every store, the
// shared LLM client, and the agent registry. AssistantID matches
// director.AssistantID: one process-wide singleton Assistant identity.
func Build(ctx context.Context, configDir string) (*App, error) {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	llm, err := buildLLMClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	ws, err := workspace.New(cfg.Workspace.RuntimeRoot, "assistant_global", cfg.Workspace.MemoryCap)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to open workspace: %w", err)
	}

	tasks := taskstack.New()
	msgs := messages.New(tasks)
	execs := execstore.New()

	reg := registry.New(cfg.Workspace.AgentsDir, llm)
	reg.RegisterPipelineAgents(
		story.NewDescriptor(llm),
		screenplay.NewDescriptor(llm),
		storyboard.NewDescriptor(llm),
		keyframe.NewDescriptor(llm, time.Duration(cfg.Defaults.RetryMaxDelay*float64(time.Second))),
		video.NewDescriptor(llm),
		audio.NewDescriptor(llm),
	)
	if discovered := reg.Discover(); len(discovered) > 0 {
		slog.Info("discovered sync agents", "agents", discovered)
	}

	asst := assistant.New("StoryForge Assistant", "Turns a one-line story premise into a fully materialized short film package.")
	svc := &assistant.Service{
		Assistant:  asst,
		Registry:   reg,
		Tasks:      tasks,
		Execs:      execs,
		Workspace:  ws,
		LLM:        llm,
		ScratchDir: cfg.Workspace.ScratchDir,
	}

	return &App{
		Config:    cfg,
		LLM:       llm,
		Workspace: ws,
		Tasks:     tasks,
		Messages:  msgs,
		Execs:     execs,
		Registry:  reg,
		Assistant: svc,
	}, nil
}

// buildLLMClient resolves Defaults.LLMProvider in the LLM provider
// registry and constructs the matching SDK client, reading its API key
// from the environment variable the config names.
func buildLLMClient(cfg *config.Config) (llmadapter.Client, error) {
	name := cfg.Defaults.LLMProvider
	if name == "" {
		return nil, fmt.Errorf("no default llm_provider configured")
	}
	provider, err := cfg.GetLLMProvider(name)
	if err != nil {
		return nil, err
	}

	apiKey := ""
	if provider.APIKeyEnv != "" {
		apiKey = os.Getenv(provider.APIKeyEnv)
	}

	switch provider.Type {
	case config.LLMProviderTypeAnthropic:
		return llmadapter.NewAnthropicClient(apiKey, provider.BaseURL), nil
	case config.LLMProviderTypeOpenAI:
		return llmadapter.NewOpenAIClient(apiKey, provider.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider type %q for provider %q", provider.Type, name)
	}
}
