package models

import "time"

// FileType is the coarse category a stored file is bucketed into, derived
// from its extension (spec.md §3).
type FileType string

const (
	FileImage FileType = "image"
	FileVideo FileType = "video"
	FileText  FileType = "text"
	FileAudio FileType = "audio"
	FileOther FileType = "other"
)

// FileMetadata describes one file stored by the workspace's FileManager.
// On-disk content lives at file_path; the numbered name (file_{N:06d}{ext})
// is assigned once and never reused even if the file is later deleted.
type FileMetadata struct {
	ID          int            `json:"id"`
	Filename    string         `json:"filename"`
	Description string         `json:"description"`
	FileType    FileType       `json:"file_type"`
	Extension   string         `json:"extension"`
	FilePath    string         `json:"file_path"`
	SizeBytes   int64          `json:"size_bytes"`
	// Checksum is the sha256 hex digest of the stored content, supplemented
	// from the original keyframe materializer's integrity check
	// (SPEC_FULL.md §3).
	Checksum  string         `json:"checksum"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy string         `json:"created_by,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the metadata record.
func (f *FileMetadata) Clone() *FileMetadata {
	if f == nil {
		return nil
	}
	c := *f
	c.Tags = append([]string(nil), f.Tags...)
	c.Metadata = cloneMap(f.Metadata)
	return &c
}

// LogOperation is the kind of mutation a LogEntry records.
type LogOperation string

const (
	LogCreate LogOperation = "create"
	LogRead   LogOperation = "read"
	LogWrite  LogOperation = "write"
	LogDelete LogOperation = "delete"
)

// LogResourceType is the kind of resource a LogEntry concerns.
type LogResourceType string

const (
	ResourceFile      LogResourceType = "file"
	ResourceMemory    LogResourceType = "memory"
	ResourceLog       LogResourceType = "log"
	ResourceWorkspace LogResourceType = "workspace"
	ResourceExecution LogResourceType = "execution"
)

// LogEntry is one append-only record in the workspace's operation log.
type LogEntry struct {
	ID           int             `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	OperationType LogOperation   `json:"operation_type"`
	ResourceType LogResourceType `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      map[string]any  `json:"details,omitempty"`
	AgentID      string          `json:"agent_id,omitempty"`
	TaskID       string          `json:"task_id,omitempty"`
}

// Clone returns a deep copy of the log entry.
func (l *LogEntry) Clone() *LogEntry {
	if l == nil {
		return nil
	}
	c := *l
	c.Details = cloneMap(l.Details)
	return &c
}
