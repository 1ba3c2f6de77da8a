package workspace

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/masking"
	"github.com/storyforge-ai/storyforge/pkg/models"
)

// LogManager is an append-only JSON-Lines operation log with an in-memory
// mirror for fast filtering (spec.md §4.4).
type LogManager struct {
	mu       sync.Mutex
	path     string
	entries  []*models.LogEntry
	counter  int
	redactor *masking.Redactor
}

// NewLogManager opens (or creates) the log file at path, replaying any
// existing entries into the in-memory mirror.
func NewLogManager(path string) (*LogManager, error) {
	lm := &LogManager{path: path, redactor: masking.New()}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lm, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e models.LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		lm.entries = append(lm.entries, &e)
		if e.ID > lm.counter {
			lm.counter = e.ID
		}
	}
	return lm, scanner.Err()
}

// Add appends a new log entry, masking its details before persisting.
func (lm *LogManager) Add(op models.LogOperation, resourceType models.LogResourceType, resourceID string, details map[string]any, agentID, taskID string) (*models.LogEntry, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.counter++
	entry := &models.LogEntry{
		ID:            lm.counter,
		Timestamp:     time.Now(),
		OperationType: op,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Details:       lm.redactor.MaskDetails(details),
		AgentID:       agentID,
		TaskID:        taskID,
	}

	f, err := os.OpenFile(lm.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return nil, err
	}

	lm.entries = append(lm.entries, entry)
	return entry.Clone(), nil
}

// LogFilter narrows GetLogs results. Zero-value fields are ignored.
type LogFilter struct {
	OperationType models.LogOperation
	ResourceType  models.LogResourceType
	AgentID       string
	TaskID        string
	Limit         int
}

// GetLogs returns log entries matching filter, newest-first.
func (lm *LogManager) GetLogs(filter LogFilter) []*models.LogEntry {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var out []*models.LogEntry
	for i := len(lm.entries) - 1; i >= 0; i-- {
		e := lm.entries[i]
		if filter.OperationType != "" && e.OperationType != filter.OperationType {
			continue
		}
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		if filter.AgentID != "" && e.AgentID != filter.AgentID {
			continue
		}
		if filter.TaskID != "" && e.TaskID != filter.TaskID {
			continue
		}
		out = append(out, e.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// SearchLogs substring-matches query against each entry's serialized
// details, newest-first, capped at limit (default 50).
func (lm *LogManager) SearchLogs(query string, limit int) []*models.LogEntry {
	if limit <= 0 {
		limit = 50
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	q := strings.ToLower(query)
	var out []*models.LogEntry
	for i := len(lm.entries) - 1; i >= 0; i-- {
		e := lm.entries[i]
		data, err := json.Marshal(e.Details)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(data)), q) {
			out = append(out, e.Clone())
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Count returns the number of log entries recorded.
func (lm *LogManager) Count() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.entries)
}
