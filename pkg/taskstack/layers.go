package taskstack

import (
	"fmt"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/models"
)

// CreateLayer inserts a new layer at index (or appends if index is nil),
// re-numbering all subsequent layers so indices stay contiguous.
func (s *Store) CreateLayer(index *int, preHook, postHook map[string]any) (*models.TaskLayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLayerLocked(index, preHook, postHook)
}

func (s *Store) createLayerLocked(index *int, preHook, postHook map[string]any) (*models.TaskLayer, error) {
	insertAt := len(s.layers)
	if index != nil {
		insertAt = *index
		if insertAt < 0 || insertAt > len(s.layers) {
			return nil, apperrors.NewValidationError("index", "out of range")
		}
	}
	if s.pointer != nil && insertAt < s.pointer.LayerIndex {
		return nil, apperrors.NewInvariantViolation("create_layer", "cannot insert before the execution pointer's layer")
	}
	s.layerCounter++
	layer := &models.TaskLayer{
		Tasks:     []models.TaskRef{},
		PreHook:   preHook,
		PostHook:  postHook,
		CreatedAt: time.Now(),
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[insertAt+1:], s.layers[insertAt:])
	s.layers[insertAt] = layer
	s.reindexLayersLocked()
	return layer.Clone(), nil
}

// reindexLayersLocked re-numbers every layer's LayerIndex to match its
// current position. Caller must hold s.mu.
func (s *Store) reindexLayersLocked() {
	for i, l := range s.layers {
		l.LayerIndex = i
	}
}

func (s *Store) findLayerLocked(layerIndex int) (*models.TaskLayer, error) {
	if layerIndex < 0 || layerIndex >= len(s.layers) {
		return nil, apperrors.ErrNotFound
	}
	return s.layers[layerIndex], nil
}

// AddTaskToLayer inserts taskID into the layer at layerIndex, at insertIndex
// (or appended if insertIndex is nil).
func (s *Store) AddTaskToLayer(layerIndex int, taskID string, insertIndex *int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTaskToLayerLocked(layerIndex, taskID, insertIndex)
}

func (s *Store) addTaskToLayerLocked(layerIndex int, taskID string, insertIndex *int) (bool, error) {
	layer, err := s.findLayerLocked(layerIndex)
	if err != nil {
		return false, err
	}
	if _, ok := s.tasks[taskID]; !ok {
		return false, apperrors.ErrNotFound
	}
	if s.layerExecutedLocked(layerIndex) {
		return false, apperrors.NewInvariantViolation("add_task_to_layer", "layer is executed")
	}
	if layer.HasTask(taskID) {
		return false, apperrors.NewInvariantViolation("add_task_to_layer", "task already present in layer")
	}
	at := len(layer.Tasks)
	if insertIndex != nil {
		at = *insertIndex
		if at < 0 || at > len(layer.Tasks) {
			return false, apperrors.NewValidationError("insert_index", "out of range")
		}
	}
	if s.isFrontierLayerLocked(layerIndex) && at <= s.pointer.TaskIndex {
		return false, apperrors.NewInvariantViolation("add_task_to_layer", "insertion at or before the execution frontier is rejected")
	}
	ref := models.TaskRef{TaskID: taskID, CreatedAt: time.Now()}
	layer.Tasks = append(layer.Tasks, models.TaskRef{})
	copy(layer.Tasks[at+1:], layer.Tasks[at:])
	layer.Tasks[at] = ref
	return true, nil
}

// RemoveTaskFromLayer removes taskID from the layer at layerIndex. Rejected
// if the task is already executed.
func (s *Store) RemoveTaskFromLayer(layerIndex int, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeTaskFromLayerLocked(layerIndex, taskID)
}

func (s *Store) removeTaskFromLayerLocked(layerIndex int, taskID string) (bool, error) {
	layer, err := s.findLayerLocked(layerIndex)
	if err != nil {
		return false, err
	}
	idx := layer.IndexOf(taskID)
	if idx < 0 {
		return false, apperrors.ErrNotFound
	}
	if s.layerExecutedLocked(layerIndex) {
		return false, apperrors.NewInvariantViolation("remove_task_from_layer", "layer is executed")
	}
	if s.isFrontierLayerLocked(layerIndex) && idx < s.pointer.TaskIndex {
		return false, apperrors.NewInvariantViolation("remove_task_from_layer", "task has already been executed")
	}
	layer.Tasks = append(layer.Tasks[:idx], layer.Tasks[idx+1:]...)
	return true, nil
}

// ReplaceTaskInLayer atomically cancels oldID and swaps it for newID at the
// same position within the layer.
func (s *Store) ReplaceTaskInLayer(layerIndex int, oldID, newID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceTaskInLayerLocked(layerIndex, oldID, newID)
}

func (s *Store) replaceTaskInLayerLocked(layerIndex int, oldID, newID string) (bool, error) {
	layer, err := s.findLayerLocked(layerIndex)
	if err != nil {
		return false, err
	}
	idx := layer.IndexOf(oldID)
	if idx < 0 {
		return false, apperrors.ErrNotFound
	}
	if layer.HasTask(newID) {
		return false, apperrors.NewInvariantViolation("replace_task_in_layer", "new task already present in layer")
	}
	newTask, ok := s.tasks[newID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if s.layerExecutedLocked(layerIndex) {
		return false, apperrors.NewInvariantViolation("replace_task_in_layer", "layer is executed")
	}
	if s.isFrontierLayerLocked(layerIndex) && idx < s.pointer.TaskIndex {
		return false, apperrors.NewInvariantViolation("replace_task_in_layer", "old task has already been executed")
	}
	oldTask, ok := s.tasks[oldID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	cancelled := models.TaskCancelled
	oldTask.Status = cancelled
	oldTask.UpdatedAt = time.Now()
	layer.Tasks[idx] = models.TaskRef{TaskID: newID, CreatedAt: time.Now()}
	_ = newTask
	return true, nil
}

// UpdateLayerHooks replaces the pre/post hooks of the layer at layerIndex.
// Nil hooks leave the corresponding field unchanged.
func (s *Store) UpdateLayerHooks(layerIndex int, preHook, postHook map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLayerHooksLocked(layerIndex, preHook, postHook)
}

func (s *Store) updateLayerHooksLocked(layerIndex int, preHook, postHook map[string]any) (bool, error) {
	layer, err := s.findLayerLocked(layerIndex)
	if err != nil {
		return false, err
	}
	if s.layerExecutedLocked(layerIndex) {
		return false, apperrors.NewInvariantViolation("update_layer_hooks", "layer is executed")
	}
	if preHook != nil {
		layer.PreHook = preHook
	}
	if postHook != nil {
		layer.PostHook = postHook
	}
	return true, nil
}

// InsertLayerWithTasks atomically inserts a layer at insertIndex, re-indexes
// subsequent layers, then appends taskIDs to the new layer in order.
func (s *Store) InsertLayerWithTasks(insertIndex int, taskIDs []string, preHook, postHook map[string]any) (*models.TaskLayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer != nil && insertIndex < s.pointer.LayerIndex {
		return nil, apperrors.NewInvariantViolation("insert_layer_with_tasks", "insert_index precedes the execution pointer's layer")
	}
	for _, id := range taskIDs {
		if _, ok := s.tasks[id]; !ok {
			return nil, fmt.Errorf("%w: task %s", apperrors.ErrNotFound, id)
		}
	}
	idx := insertIndex
	layer, err := s.createLayerLocked(&idx, preHook, postHook)
	if err != nil {
		return nil, err
	}
	// createLayerLocked already shifted the pointer's frame of reference is
	// unaffected because insertIndex >= pointer.LayerIndex was checked above;
	// shift the pointer down only if it strictly increases due to the new
	// layer appearing at or before it.
	if s.pointer != nil && insertIndex <= s.pointer.LayerIndex {
		s.pointer.LayerIndex++
	}
	real := s.layers[idx]
	for _, id := range taskIDs {
		real.Tasks = append(real.Tasks, models.TaskRef{TaskID: id, CreatedAt: time.Now()})
	}
	layer = real.Clone()
	return layer, nil
}
