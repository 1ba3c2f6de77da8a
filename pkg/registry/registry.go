// Package registry implements the AgentRegistry: discovery, lazy
// instantiation, and cataloging of sub-agents (spec.md §4.5), following the
// teacher's directory-driven config loading style (pkg/config) adapted to
// filesystem agent discovery instead of YAML.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
)

// SyncFactory builds a descriptor.Agent directly, bypassing the pipeline
// descriptor protocol — for simple, non-pipeline agents discovered purely
// by filesystem scan.
type SyncFactory func() descriptor.Agent

// CatalogEntry is the planner-facing summary of one registered agent,
// mirroring the teacher's config.SubAgentEntry shape.
type CatalogEntry struct {
	Name         string
	Description  string
	Dependencies []string
}

// Registry holds three disjoint maps keyed by agent name: sync-agent
// factories discovered by filesystem scan, pipeline descriptors registered
// explicitly, and materialized instances (lazy, singleton per process).
type Registry struct {
	mu sync.RWMutex

	syncFactories       map[string]SyncFactory
	pipelineDescriptors map[string]*descriptor.AgentDescriptor
	instances           map[string]*descriptor.EquippedAgent

	agentsDir string
	llm       any
}

// New creates an empty registry. agentsDir is scanned by Discover; llm is
// the shared LLM client handed to pipeline descriptors' BuildEquippedAgent.
func New(agentsDir string, llm any) *Registry {
	return &Registry{
		syncFactories:       make(map[string]SyncFactory),
		pipelineDescriptors: make(map[string]*descriptor.AgentDescriptor),
		instances:           make(map[string]*descriptor.EquippedAgent),
		agentsDir:           agentsDir,
		llm:                 llm,
	}
}

// RegisterSyncAgent adds a sync-agent factory under name.
func (r *Registry) RegisterSyncAgent(name string, factory SyncFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncFactories[name] = factory
}

// RegisterPipelineAgents registers a batch of pipeline descriptors — the
// recommended registration path (spec.md §4.5).
func (r *Registry) RegisterPipelineAgents(descriptors ...*descriptor.AgentDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range descriptors {
		d.Normalize()
		r.pipelineDescriptors[d.AgentName] = d
	}
}

// Discover walks agentsDir, logging and skipping any entry it cannot use —
// one broken agent directory must not take down the registry (spec.md
// §4.5's failure mode). Discovery here only validates the directory exists
// per-agent; actual registration still happens via RegisterSyncAgent /
// RegisterPipelineAgents at process wiring time, matching the config
// loader's "read directory, validate, then build" shape.
func (r *Registry) Discover() []string {
	var found []string
	entries, err := os.ReadDir(r.agentsDir)
	if err != nil {
		slog.Error("agent discovery failed to read agents directory", "dir", r.agentsDir, "error", err)
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		sub := filepath.Join(r.agentsDir, name)
		if _, err := os.Stat(sub); err != nil {
			slog.Error("agent discovery skipped unreadable directory", "dir", sub, "error", err)
			continue
		}
		found = append(found, name)
	}
	return found
}

// GetAgent lazily instantiates the agent named name on first use and
// returns the same instance on every subsequent call.
func (r *Registry) GetAgent(name string) (*descriptor.EquippedAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[name]; ok {
		return inst, nil
	}

	if d, ok := r.pipelineDescriptors[name]; ok {
		inst := d.BuildEquippedAgent(r.llm, nil)
		r.instances[name] = inst
		return inst, nil
	}

	if factory, ok := r.syncFactories[name]; ok {
		inst := &descriptor.EquippedAgent{Agent: factory()}
		r.instances[name] = inst
		return inst, nil
	}

	return nil, fmt.Errorf("registry: unknown agent %q", name)
}

// GetDescriptor returns the pipeline descriptor for name, if registered.
func (r *Registry) GetDescriptor(name string) (*descriptor.AgentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.pipelineDescriptors[name]
	return d, ok
}

// ListAgents merges every known agent name from both the sync-factory and
// pipeline-descriptor maps.
func (r *Registry) ListAgents() []CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CatalogEntry, 0, len(r.syncFactories)+len(r.pipelineDescriptors))
	for name := range r.syncFactories {
		out = append(out, CatalogEntry{Name: name})
	}
	for name, d := range r.pipelineDescriptors {
		out = append(out, CatalogEntry{
			Name:         name,
			Description:  d.CatalogEntry,
			Dependencies: d.UpstreamKeys,
		})
	}
	return out
}

// Reload clears all cached instances and re-runs discovery, forcing fresh
// lazy instantiation on next GetAgent call. Registered factories and
// descriptors are untouched — only the singleton cache is cleared.
func (r *Registry) Reload() []string {
	r.mu.Lock()
	r.instances = make(map[string]*descriptor.EquippedAgent)
	r.mu.Unlock()
	return r.Discover()
}
