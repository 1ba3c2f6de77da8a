// Package workspace implements the Workspace composition: FileManager,
// MemoryManager, and LogManager, each owning their on-disk artifact under
// Runtime/{workspace_id}/ plus an in-memory mirror protected by its own
// lock (spec.md §4.4). Shaped after the teacher's pattern of a service
// holding a mutex around a map plus a write-through on-disk file
// (pkg/config's read-YAML-at-startup style for the metadata index).
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/models"
)

// fileIndex is the on-disk shape of .file_metadata.json. Keys are decimal
// file ids; JSON object keys must be strings even though FileMetadata.ID is
// an int.
type fileIndex struct {
	Counter int                             `json:"counter"`
	Files   map[string]*models.FileMetadata `json:"files"`
}

// FileManager stores numbered content files plus a JSON metadata index.
type FileManager struct {
	mu      sync.Mutex
	dir     string
	counter int
	files   map[int]*models.FileMetadata
}

// NewFileManager opens (or creates) the file store rooted at dir, restoring
// the counter and metadata from .file_metadata.json if present (spec.md §8's
// persist-and-reload scenario).
func NewFileManager(dir string) (*FileManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fm := &FileManager{dir: dir, files: make(map[int]*models.FileMetadata)}
	idxPath := fm.indexPath()
	data, err := os.ReadFile(idxPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fm, nil
		}
		return nil, err
	}
	var idx fileIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing file metadata index: %w", err)
	}
	fm.counter = idx.Counter
	for _, meta := range idx.Files {
		fm.files[meta.ID] = meta
	}
	return fm, nil
}

func (fm *FileManager) indexPath() string {
	return filepath.Join(fm.dir, ".file_metadata.json")
}

func detectFileType(ext string) models.FileType {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return models.FileImage
	case ".mp4", ".mov", ".avi", ".webm", ".mkv":
		return models.FileVideo
	case ".mp3", ".wav", ".flac", ".ogg", ".m4a":
		return models.FileAudio
	case ".txt", ".md", ".json", ".yaml", ".yml", ".csv":
		return models.FileText
	default:
		return models.FileOther
	}
}

// StoreFile writes content under a new numbered filename and records its
// metadata. Returns the stored FileMetadata.
func (fm *FileManager) StoreFile(content []byte, filename, description string, createdBy string, tags []string, extra map[string]any) (*models.FileMetadata, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	ext := filepath.Ext(filename)
	fm.counter++
	onDisk := fmt.Sprintf("file_%06d%s", fm.counter, ext)
	path := filepath.Join(fm.dir, onDisk)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(content)
	meta := &models.FileMetadata{
		ID:          fm.counter,
		Filename:    filename,
		Description: description,
		FileType:    detectFileType(ext),
		Extension:   ext,
		FilePath:    path,
		SizeBytes:   int64(len(content)),
		Checksum:    hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now(),
		CreatedBy:   createdBy,
		Tags:        append([]string(nil), tags...),
		Metadata:    extra,
	}
	fm.files[meta.ID] = meta
	if err := fm.persistIndexLocked(); err != nil {
		return nil, err
	}
	return meta.Clone(), nil
}

func (fm *FileManager) persistIndexLocked() error {
	byStringKey := make(map[string]*models.FileMetadata, len(fm.files))
	for id, meta := range fm.files {
		byStringKey[fmt.Sprintf("%d", id)] = meta
	}
	idx := fileIndex{Counter: fm.counter, Files: byStringKey}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fm.indexPath(), data, 0o644)
}

// Get returns the metadata for id.
func (fm *FileManager) Get(id int) (*models.FileMetadata, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	meta, ok := fm.files[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return meta.Clone(), nil
}

// ReadContent returns the bytes stored for id.
func (fm *FileManager) ReadContent(id int) ([]byte, error) {
	fm.mu.Lock()
	meta, ok := fm.files[id]
	fm.mu.Unlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return os.ReadFile(meta.FilePath)
}

// Delete removes a file's content and its metadata entry.
func (fm *FileManager) Delete(id int) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	meta, ok := fm.files[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := os.Remove(meta.FilePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(fm.files, id)
	return fm.persistIndexLocked()
}

// FileFilter narrows List results. Zero-value fields are ignored.
type FileFilter struct {
	FileType  models.FileType
	CreatedBy string
	Tags      []string
	Limit     int
}

// List returns file metadata matching filter, newest-first.
func (fm *FileManager) List(filter FileFilter) []*models.FileMetadata {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	var out []*models.FileMetadata
	for _, meta := range fm.files {
		if filter.FileType != "" && meta.FileType != filter.FileType {
			continue
		}
		if filter.CreatedBy != "" && meta.CreatedBy != filter.CreatedBy {
			continue
		}
		if len(filter.Tags) > 0 && !hasAllTags(meta.Tags, filter.Tags) {
			continue
		}
		out = append(out, meta.Clone())
	}
	sortFilesNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// hasAllTags reports whether have contains every tag in want (require-all,
// not any-match).
func hasAllTags(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

func sortFilesNewestFirst(files []*models.FileMetadata) {
	for i := 1; i < len(files); i++ {
		for j := i; j > 0 && files[j].CreatedAt.After(files[j-1].CreatedAt); j-- {
			files[j], files[j-1] = files[j-1], files[j]
		}
	}
}

// SearchByQuery substring-matches filename, description, and tags.
func (fm *FileManager) SearchByQuery(query string, filter FileFilter) []*models.FileMetadata {
	all := fm.List(filter)
	q := strings.ToLower(query)
	var out []*models.FileMetadata
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Filename), q) ||
			strings.Contains(strings.ToLower(meta.Description), q) ||
			containsSubstr(meta.Tags, q) {
			out = append(out, meta)
		}
	}
	return out
}

func containsSubstr(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Count returns the number of stored files.
func (fm *FileManager) Count() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return len(fm.files)
}
