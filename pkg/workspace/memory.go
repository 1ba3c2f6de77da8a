package workspace

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultMemoryCap is M_MAX from spec.md §3.
const DefaultMemoryCap = 100_000

const truncationNotice = "\n\n*[truncated: content exceeded the memory cap]*"

// MemoryManager backs a single markdown blob, global_memory.md, capped at
// cap characters with soft-cut truncation (spec.md §3).
type MemoryManager struct {
	mu   sync.Mutex
	path string
	cap  int
	data string
}

// NewMemoryManager opens (or creates) the memory blob at path.
func NewMemoryManager(path string, cap int) (*MemoryManager, error) {
	if cap <= 0 {
		cap = DefaultMemoryCap
	}
	mm := &MemoryManager{path: path, cap: cap}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mm, nil
		}
		return nil, err
	}
	mm.data = string(data)
	return mm, nil
}

// WriteResult is the outcome of a Write call.
type WriteResult struct {
	Success        bool
	WasTruncated   bool
	OriginalLength int
	FinalLength    int
	Message        string
}

// Write replaces (or appends to, if appendMode) the memory blob with
// content, applying soft-cut truncation if the result would exceed the cap.
func (mm *MemoryManager) Write(content string, appendMode bool) (*WriteResult, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	next := content
	if appendMode {
		next = mm.data + content
	}
	original := len(next)
	truncated := false
	if len(next) > mm.cap {
		next = softCut(next, mm.cap) + truncationNotice
		truncated = true
	}
	if err := os.WriteFile(mm.path, []byte(next), 0o644); err != nil {
		return nil, err
	}
	mm.data = next
	return &WriteResult{
		Success:        true,
		WasTruncated:   truncated,
		OriginalLength: original,
		FinalLength:    len(next),
		Message:        writeMessage(truncated),
	}, nil
}

func writeMessage(truncated bool) string {
	if truncated {
		return "memory written with truncation applied"
	}
	return "memory written"
}

// softCut truncates s to at most cap chars, preferring the nearest newline
// or period at or after 0.9*cap so the cut lands on a natural boundary.
func softCut(s string, cap int) string {
	if len(s) <= cap {
		return s
	}
	floor := int(float64(cap) * 0.9)
	window := s[:cap]
	best := -1
	for i := len(window) - 1; i >= floor && i >= 0; i-- {
		if window[i] == '\n' || window[i] == '.' {
			best = i + 1
			break
		}
	}
	if best == -1 {
		return window
	}
	return window[:best]
}

// Read returns the current memory content.
func (mm *MemoryManager) Read() string {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.data
}

// Append is sugar for Write(content, true).
func (mm *MemoryManager) Append(content string) (*WriteResult, error) {
	return mm.Write(content, true)
}

// Clear empties the memory blob.
func (mm *MemoryManager) Clear() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.data = ""
	return os.WriteFile(mm.path, nil, 0o644)
}

// Length returns the current memory length in characters.
func (mm *MemoryManager) Length() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.data)
}

// IsFull reports whether memory is at or above 0.9*cap.
func (mm *MemoryManager) IsFull() bool {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return float64(len(mm.data)) >= 0.9*float64(mm.cap)
}

// Info is the summary returned by GetMemoryInfo.
type Info struct {
	Length    int
	Cap       int
	IsFull    bool
	Preview   string
}

// GetMemoryInfo summarizes the current memory state.
func (mm *MemoryManager) GetMemoryInfo() Info {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	preview := mm.data
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return Info{
		Length:  len(mm.data),
		Cap:     mm.cap,
		IsFull:  float64(len(mm.data)) >= 0.9*float64(mm.cap),
		Preview: preview,
	}
}

// Search returns true plus a short preview if query appears in the memory.
func (mm *MemoryManager) Search(query string) (found bool, length int, preview string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if query == "" || !strings.Contains(mm.data, query) {
		return false, len(mm.data), ""
	}
	idx := strings.Index(mm.data, query)
	start := idx - 40
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + 40
	if end > len(mm.data) {
		end = len(mm.data)
	}
	return true, len(mm.data), fmt.Sprintf("...%s...", mm.data[start:end])
}
