// Package models holds the entity types shared across storyforge's stores:
// tasks, layers, messages, executions, files, and log entries. None of
// these types carry behavior beyond simple accessors — mutation logic lives
// in the owning store (pkg/taskstack, pkg/messages, pkg/execstore,
// pkg/workspace) so each store has exactly one code path that enforces its
// invariants.
package models

import "time"

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// IsTerminal reports whether status is one of the terminal states.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	default:
		return false
	}
}

// Task is a unit of work in the task stack. Description is a free-form map
// so planners can attach arbitrary domain fields (e.g. overall_description).
type Task struct {
	ID          string         `json:"id"`
	Description map[string]any `json:"description"`
	Status      TaskStatus     `json:"status"`
	Progress    map[string]any `json:"progress"`
	Results     map[string]any `json:"results,omitempty"`
	// Priority is a supplemented, informational planning hint (SPEC_FULL.md
	// §3); it never affects pointer/frontier semantics.
	Priority  int       `json:"priority,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of t so callers can read/mutate without racing
// the store's internal state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Description = cloneMap(t.Description)
	c.Progress = cloneMap(t.Progress)
	c.Results = cloneMap(t.Results)
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TaskRef is a task's reference within a TaskLayer: the task id plus the
// time it was added to that layer.
type TaskRef struct {
	TaskID    string    `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskLayer is an ordered bucket of tasks with optional pre/post hooks.
// LayerIndex always equals the layer's position in the store's layer slice
// after compaction (spec.md §3, §8 universal invariant).
type TaskLayer struct {
	LayerIndex int            `json:"layer_index"`
	Tasks      []TaskRef      `json:"tasks"`
	PreHook    map[string]any `json:"pre_hook,omitempty"`
	PostHook   map[string]any `json:"post_hook,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Clone returns a deep copy of the layer.
func (l *TaskLayer) Clone() *TaskLayer {
	if l == nil {
		return nil
	}
	c := *l
	c.Tasks = append([]TaskRef(nil), l.Tasks...)
	c.PreHook = cloneMap(l.PreHook)
	c.PostHook = cloneMap(l.PostHook)
	return &c
}

// HasTask reports whether taskID is already present in this layer.
func (l *TaskLayer) HasTask(taskID string) bool {
	for _, t := range l.Tasks {
		if t.TaskID == taskID {
			return true
		}
	}
	return false
}

// IndexOf returns the position of taskID within the layer, or -1.
func (l *TaskLayer) IndexOf(taskID string) int {
	for i, t := range l.Tasks {
		if t.TaskID == taskID {
			return i
		}
	}
	return -1
}

// ExecutionPointer marks the execution frontier: tasks strictly before
// (LayerIndex, TaskIndex) — lexicographically — are executed; everything
// from there on is pending. InPreHook/InPostHook record whether the pointer
// currently sits inside a layer's pre- or post-hook phase.
type ExecutionPointer struct {
	LayerIndex int  `json:"layer_index"`
	TaskIndex  int  `json:"task_index"`
	InPreHook  bool `json:"in_pre_hook"`
	InPostHook bool `json:"in_post_hook"`
}

// Clone returns a copy of the pointer (or nil).
func (p *ExecutionPointer) Clone() *ExecutionPointer {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Before reports whether (layerIndex, taskIndex) is strictly before the
// pointer, i.e. that position has already been executed.
func (p *ExecutionPointer) Before(layerIndex, taskIndex int) bool {
	if p == nil {
		return false
	}
	if layerIndex != p.LayerIndex {
		return layerIndex < p.LayerIndex
	}
	return taskIndex < p.TaskIndex
}
