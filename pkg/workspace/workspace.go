package workspace

import (
	"path/filepath"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/models"
)

// Workspace composes a FileManager, MemoryManager, and LogManager rooted at
// Runtime/{id}/, emitting a log entry on every mutating operation (spec.md
// §4.4).
type Workspace struct {
	ID        string
	CreatedAt time.Time
	RuntimePath string

	Files   *FileManager
	Memory  *MemoryManager
	Logs    *LogManager
}

// New opens (or creates) a workspace rooted at runtimeRoot/id.
func New(runtimeRoot, id string, memoryCap int) (*Workspace, error) {
	dir := filepath.Join(runtimeRoot, id)

	files, err := NewFileManager(dir)
	if err != nil {
		return nil, err
	}
	mem, err := NewMemoryManager(filepath.Join(dir, "global_memory.md"), memoryCap)
	if err != nil {
		return nil, err
	}
	logs, err := NewLogManager(filepath.Join(dir, "logs.jsonl"))
	if err != nil {
		return nil, err
	}

	return &Workspace{
		ID:          id,
		CreatedAt:   time.Now(),
		RuntimePath: dir,
		Files:       files,
		Memory:      mem,
		Logs:        logs,
	}, nil
}

// StoreFile stores content and logs the creation.
func (w *Workspace) StoreFile(content []byte, filename, description, createdBy string, tags []string, extra map[string]any, agentID, taskID string) (*models.FileMetadata, error) {
	meta, err := w.Files.StoreFile(content, filename, description, createdBy, tags, extra)
	if err != nil {
		return nil, err
	}
	_, _ = w.Logs.Add(models.LogCreate, models.ResourceFile, itoa(meta.ID), map[string]any{
		"filename": filename, "size_bytes": meta.SizeBytes,
	}, agentID, taskID)
	return meta, nil
}

// DeleteFile deletes a file and logs the deletion.
func (w *Workspace) DeleteFile(id int, agentID, taskID string) error {
	if err := w.Files.Delete(id); err != nil {
		return err
	}
	_, _ = w.Logs.Add(models.LogDelete, models.ResourceFile, itoa(id), nil, agentID, taskID)
	return nil
}

// WriteMemory writes memory and logs the write.
func (w *Workspace) WriteMemory(content string, appendMode bool, agentID, taskID string) (*WriteResult, error) {
	res, err := w.Memory.Write(content, appendMode)
	if err != nil {
		return nil, err
	}
	_, _ = w.Logs.Add(models.LogWrite, models.ResourceMemory, "", map[string]any{
		"was_truncated": res.WasTruncated, "final_length": res.FinalLength,
	}, agentID, taskID)
	return res, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SearchResult is the fan-out result of SearchAll.
type SearchResult struct {
	Files  []*models.FileMetadata
	Memory MemorySearchResult
	Logs   []*models.LogEntry
}

// MemorySearchResult is the memory portion of SearchAll's result.
type MemorySearchResult struct {
	Found   bool
	Length  int
	Preview string
}

// SearchAll fans a query out across the requested workspace surfaces.
func (w *Workspace) SearchAll(query string, searchFiles, searchMemory, searchLogs bool, limit int) SearchResult {
	var res SearchResult
	if searchFiles {
		res.Files = w.Files.SearchByQuery(query, FileFilter{Limit: limit})
	}
	if searchMemory {
		found, length, preview := w.Memory.Search(query)
		res.Memory = MemorySearchResult{Found: found, Length: length, Preview: preview}
	}
	if searchLogs {
		res.Logs = w.Logs.SearchLogs(query, limit)
	}
	return res
}

// Summary is the result of GetSummary.
type Summary struct {
	WorkspaceID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileCount   int
	MemoryInfo  Info
	LogCount    int
	RuntimePath string
}

// GetSummary describes the workspace's current state.
func (w *Workspace) GetSummary() Summary {
	return Summary{
		WorkspaceID: w.ID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   time.Now(),
		FileCount:   w.Files.Count(),
		MemoryInfo:  w.Memory.GetMemoryInfo(),
		LogCount:    w.Logs.Count(),
		RuntimePath: w.RuntimePath,
	}
}
