// Package assistant implements AssistantService.ExecuteForTask: the three
// explicit boundaries — build inputs, run agent, process results — that
// turn a task and an agent id into a completed AgentExecution plus
// persisted workspace effects (spec.md §4.6, grounded in
// original_source/agents/descriptor.py's build_equipped_agent flow).
package assistant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
	"github.com/storyforge-ai/storyforge/pkg/models"
	"github.com/storyforge-ai/storyforge/pkg/registry"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

// Assistant is the process-wide singleton identity (spec.md §3).
type Assistant struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// New creates the singleton Assistant identity.
func New(name, description string) *Assistant {
	return &Assistant{
		ID:          "assistant_global",
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// Service wires the registry and the three stores needed to execute a task
// against a discovered sub-agent.
type Service struct {
	Assistant *Assistant
	Registry  *registry.Registry
	Tasks     *taskstack.Store
	Execs     *execstore.Store
	Workspace *workspace.Workspace
	LLM       any
	ScratchDir string
}

// ExecutionSummary is the result of ExecuteForTask.
type ExecutionSummary struct {
	ExecutionID string
	Status      models.ExecutionStatus
	Results     map[string]any
	Error       string
	WorkspaceID string
}

// ExecuteForTask resolves agentID's descriptor, builds its input from the
// task and prior completed executions, runs it, and persists any file or
// media output it produced.
func (s *Service) ExecuteForTask(ctx context.Context, agentID, taskID string, additionalInputs map[string]any) (*ExecutionSummary, error) {
	d, ok := s.Registry.GetDescriptor(agentID)
	if !ok {
		return nil, fmt.Errorf("assistant: unknown agent %q", agentID)
	}

	task, err := s.Tasks.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	assets := s.buildAssets(task, taskID, agentID, additionalInputs)

	eq := d.BuildEquippedAgent(s.LLM, nil)
	typedInput := d.BuildInput(taskID, taskID, assets, nil)
	upstream := d.BuildUpstream(assets)

	exec := s.Execs.Create(s.Assistant.ID, agentID, taskID, map[string]any{"assets_keys": keysOf(assets)})
	if _, err := s.Execs.Start(exec.ID); err != nil {
		return nil, err
	}

	var mctx *descriptor.MaterializeContext
	if eq.Materializer != nil {
		mctx = &descriptor.MaterializeContext{
			PersistBinary: func(asset descriptor.MediaAsset) (string, error) {
				return s.persistScratch(asset)
			},
		}
	}

	results, runErr := eq.Agent.Run(ctx, typedInput, upstream, mctx)
	if runErr != nil {
		if _, err := s.Execs.Complete(exec.ID, nil, runErr.Error()); err != nil {
			return nil, err
		}
		return &ExecutionSummary{
			ExecutionID: exec.ID,
			Status:      models.ExecFailed,
			Error:       runErr.Error(),
			WorkspaceID: s.Workspace.ID,
		}, runErr
	}

	if eq.Materializer != nil {
		if err := s.materialize(ctx, eq.Materializer, mctx, taskID, results, assets); err != nil {
			if _, cerr := s.Execs.Complete(exec.ID, nil, err.Error()); cerr != nil {
				return nil, cerr
			}
			return &ExecutionSummary{
				ExecutionID: exec.ID,
				Status:      models.ExecFailed,
				Error:       err.Error(),
				WorkspaceID: s.Workspace.ID,
			}, err
		}
	}

	if _, err := s.Execs.Complete(exec.ID, results, ""); err != nil {
		return nil, err
	}

	return s.processResults(exec.ID, agentID, taskID, results)
}

// materialize runs an agent's declared Materializer over its freshly
// produced output, persisting every returned binary and writing its path
// back as "uri" (plus "asset_id") into the image/media placeholder the
// agent left in results — boundary 2.5 of spec.md §4.6, run between Run and
// Complete so the persisted execution already carries real asset URIs.
func (s *Service) materialize(ctx context.Context, m descriptor.Materializer, mctx *descriptor.MaterializeContext, projectID string, results map[string]any, assets map[string]any) error {
	produced, err := m.Materialize(ctx, projectID, results, assets)
	if err != nil {
		return err
	}
	for _, asset := range produced {
		path, err := mctx.PersistBinary(asset)
		if err != nil {
			return err
		}
		if asset.URIHolder != nil {
			asset.URIHolder["asset_id"] = asset.SysID
			asset.URIHolder["uri"] = path
		}
	}
	return nil
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// buildAssets implements boundary 1 of spec.md §4.6.
func (s *Service) buildAssets(task *models.Task, taskID, agentID string, additionalInputs map[string]any) map[string]any {
	assets := make(map[string]any)

	overall, _ := task.Description["overall_description"].(string)
	assets["draft_idea"] = overall
	assets["source_text"] = overall

	latestByAgent := make(map[string]*models.AgentExecution)
	for _, e := range s.Execs.ListByTask(taskID) {
		if e.Status != models.ExecCompleted {
			continue
		}
		cur, ok := latestByAgent[e.AgentID]
		if !ok || (e.CompletedAt != nil && cur.CompletedAt != nil && e.CompletedAt.After(*cur.CompletedAt)) {
			latestByAgent[e.AgentID] = e
		}
	}
	for producingAgent, exec := range latestByAgent {
		d, ok := s.Registry.GetDescriptor(producingAgent)
		if !ok {
			continue
		}
		assets[d.AssetKey] = stripPrivateKeys(exec.Results)
	}

	ctxData := s.retrieveWorkspaceContext(agentID, taskID)
	assets["_workspace_context"] = ctxData

	for k, v := range additionalInputs {
		assets[k] = v
	}
	return assets
}

func stripPrivateKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// workspaceContext is the per-agent retrieval bundle spec.md §4.6 describes.
type workspaceContext struct {
	RecentFiles []*models.FileMetadata
	MemoryExcerpt string
	RecentLogs  []*models.LogEntry
}

func (s *Service) retrieveWorkspaceContext(agentID, taskID string) workspaceContext {
	if s.Workspace == nil {
		return workspaceContext{}
	}
	files := s.Workspace.Files.List(workspace.FileFilter{CreatedBy: agentID, Limit: 10})
	mem := s.Workspace.Memory.Read()
	if len(mem) > 2000 {
		mem = mem[:2000]
	}
	logs := s.Workspace.Logs.GetLogs(workspace.LogFilter{AgentID: agentID, TaskID: taskID, Limit: 10})
	return workspaceContext{RecentFiles: files, MemoryExcerpt: mem, RecentLogs: logs}
}

func (s *Service) persistScratch(asset descriptor.MediaAsset) (string, error) {
	dir := filepath.Join(s.ScratchDir, "scratch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", asset.SysID, asset.Extension))
	if err := os.WriteFile(path, asset.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// fileRecord is the shape a results entry takes when it represents
// file content to persist: {file_content, filename?, description?}.
type fileRecord struct {
	FileContent []byte
	Filename    string
	Description string
}

func asFileRecord(v any) (fileRecord, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return fileRecord{}, false
	}
	content, ok := m["file_content"].([]byte)
	if !ok {
		if s, ok2 := m["file_content"].(string); ok2 {
			content = []byte(s)
		} else {
			return fileRecord{}, false
		}
	}
	filename, _ := m["filename"].(string)
	description, _ := m["description"].(string)
	return fileRecord{FileContent: content, Filename: filename, Description: description}, true
}

// processResults implements boundary 3 of spec.md §4.6.
func (s *Service) processResults(executionID, agentID, taskID string, results map[string]any) (*ExecutionSummary, error) {
	for key, v := range results {
		if key == "_media_files" {
			continue
		}
		rec, ok := asFileRecord(v)
		if !ok {
			continue
		}
		filename := rec.Filename
		if filename == "" {
			filename = key
		}
		if _, err := s.Workspace.StoreFile(rec.FileContent, filename, rec.Description, agentID, []string{agentID, taskID}, nil, agentID, taskID); err != nil {
			return nil, err
		}
	}
	if mediaFiles, ok := results["_media_files"].([]any); ok {
		for _, m := range mediaFiles {
			rec, ok := asFileRecord(m)
			if !ok {
				continue
			}
			filename := rec.Filename
			if filename == "" {
				filename = fmt.Sprintf("media_%d", time.Now().UnixNano())
			}
			if _, err := s.Workspace.StoreFile(rec.FileContent, filename, rec.Description, agentID, []string{agentID, taskID}, nil, agentID, taskID); err != nil {
				return nil, err
			}
		}
	}

	return &ExecutionSummary{
		ExecutionID: executionID,
		Status:      models.ExecCompleted,
		Results:     results,
		WorkspaceID: s.Workspace.ID,
	}, nil
}
