// Package taskstack implements the Task Stack engine: a layered, pointer-
// driven execution plan with atomic batch mutations under strong invariants
// about what may still be modified (spec.md §4.1).
//
// The store is in-memory, guarded by a single mutex, following the shape of
// the teacher's pkg/session.Manager scaled up to the richer pointer
// invariants this engine enforces. Every public mutator — whether called
// directly or through ModifyTaskStack — routes through one of the unexported
// *Locked helpers, so there is exactly one invariant-enforcement path per
// operation.
package taskstack

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/models"
)

// Store holds all tasks, layers, and the execution pointer for a single
// process. Nothing is shared across processes (spec.md §3 lifecycle note).
type Store struct {
	mu sync.Mutex

	tasks   map[string]*models.Task
	layers  []*models.TaskLayer
	pointer *models.ExecutionPointer

	taskCounter  int
	layerCounter int
}

// New creates an empty task stack store.
func New() *Store {
	return &Store{
		tasks:  make(map[string]*models.Task),
		layers: make([]*models.TaskLayer, 0),
	}
}

func randSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// CreateTask allocates a new task in PENDING state.
func (s *Store) CreateTask(description map[string]any) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTaskLocked(description)
}

func (s *Store) createTaskLocked(description map[string]any) *models.Task {
	s.taskCounter++
	now := time.Now()
	t := &models.Task{
		ID:          fmt.Sprintf("task_%d_%s", s.taskCounter, randSuffix()),
		Description: description,
		Status:      models.TaskPending,
		Progress:    map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[t.ID] = t
	return t
}

// TaskUpdate is a partial update to a task's mutable fields.
type TaskUpdate struct {
	Description map[string]any
	Status      *models.TaskStatus
	Progress    map[string]any
	Results     map[string]any
}

// UpdateTask applies a partial update to an existing task.
func (s *Store) UpdateTask(id string, upd TaskUpdate) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if upd.Description != nil {
		t.Description = upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Progress != nil {
		t.Progress = upd.Progress
	}
	if upd.Results != nil {
		t.Results = upd.Results
	}
	t.UpdatedAt = time.Now()
	return t.Clone(), nil
}

// GetTask returns a copy of the task with id, or apperrors.ErrNotFound.
func (s *Store) GetTask(id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t.Clone(), nil
}

// ListTasks returns a copy of every task, in no particular order.
func (s *Store) ListTasks() []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// DeleteTask removes a task and scrubs all layer references to it.
//
// SPEC_FULL.md §9 decision: unlike the original, deletion is refused
// (InvariantViolation) if the task still appears in any executed layer —
// executed layers are frozen and deleting their tasks would retroactively
// rewrite history.
func (s *Store) DeleteTask(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false, apperrors.ErrNotFound
	}
	for _, l := range s.layers {
		if !l.HasTask(id) {
			continue
		}
		if s.layerExecutedLocked(l.LayerIndex) {
			return false, apperrors.NewInvariantViolation("delete_task", "task appears in an executed layer")
		}
		idx := l.IndexOf(id)
		if idx >= 0 && s.pointer != nil && l.LayerIndex == s.pointer.LayerIndex && idx < s.pointer.TaskIndex {
			return false, apperrors.NewInvariantViolation("delete_task", "task has already been executed in the active layer")
		}
	}
	for _, l := range s.layers {
		s.removeTaskFromLayerSliceLocked(l, id)
	}
	delete(s.tasks, id)
	return true, nil
}

func (s *Store) removeTaskFromLayerSliceLocked(l *models.TaskLayer, taskID string) {
	idx := l.IndexOf(taskID)
	if idx < 0 {
		return
	}
	l.Tasks = append(l.Tasks[:idx], l.Tasks[idx+1:]...)
}

// layerExecutedLocked reports whether layer at layerIndex is fully executed
// (i.e. strictly before the pointer's layer). Caller must hold s.mu.
func (s *Store) layerExecutedLocked(layerIndex int) bool {
	if s.pointer == nil {
		return false
	}
	return layerIndex < s.pointer.LayerIndex
}

// isFrontierLayerLocked reports whether layerIndex is the layer the pointer
// currently sits in (the only layer that can be partially executed).
func (s *Store) isFrontierLayerLocked(layerIndex int) bool {
	return s.pointer != nil && layerIndex == s.pointer.LayerIndex
}
