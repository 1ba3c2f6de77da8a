package taskstack

import "github.com/storyforge-ai/storyforge/pkg/models"

// GetExecutionPointer returns a copy of the current pointer, or nil if unset.
func (s *Store) GetExecutionPointer() *models.ExecutionPointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.Clone()
}

// SetExecutionPointer overwrites the pointer outright. Returns false if the
// target layer/task index is out of range.
func (s *Store) SetExecutionPointer(layerIndex, taskIndex int, inPre, inPost bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if layerIndex < 0 || layerIndex >= len(s.layers) {
		return false
	}
	if taskIndex < 0 || taskIndex > len(s.layers[layerIndex].Tasks) {
		return false
	}
	s.pointer = &models.ExecutionPointer{
		LayerIndex: layerIndex,
		TaskIndex:  taskIndex,
		InPreHook:  inPre,
		InPostHook: inPost,
	}
	return true
}

// AdvanceExecutionPointer moves to the next task in the same layer; if none
// remain, to (layer+1, 0), skipping empty layers; if no layer remains,
// returns false without modifying state (idempotent at the tail, spec.md §8).
// Hook flags reset on every advance.
func (s *Store) AdvanceExecutionPointer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.layers) == 0 {
		return false
	}
	if s.pointer == nil {
		s.pointer = &models.ExecutionPointer{LayerIndex: 0, TaskIndex: 0}
	}

	layerIdx := s.pointer.LayerIndex
	taskIdx := s.pointer.TaskIndex + 1

	for layerIdx < len(s.layers) {
		if taskIdx < len(s.layers[layerIdx].Tasks) {
			s.pointer = &models.ExecutionPointer{LayerIndex: layerIdx, TaskIndex: taskIdx}
			return true
		}
		layerIdx++
		taskIdx = 0
	}
	// No more tasks anywhere: pointer stays at its previous value (idempotent).
	return false
}

// NextTask describes the task currently under the execution pointer.
type NextTask struct {
	LayerIndex int
	TaskIndex  int
	TaskID     string
	Layer      *models.TaskLayer
	IsPreHook  bool
}

// GetNextTask returns the task under the pointer; if the pointer is unset,
// returns layers[0].Tasks[0] if present. Returns nil if there is no next task.
func (s *Store) GetNextTask() *NextTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	layerIdx, taskIdx := 0, 0
	isPre := false
	if s.pointer != nil {
		layerIdx, taskIdx, isPre = s.pointer.LayerIndex, s.pointer.TaskIndex, s.pointer.InPreHook
	}
	if layerIdx < 0 || layerIdx >= len(s.layers) {
		return nil
	}
	layer := s.layers[layerIdx]
	if taskIdx < 0 || taskIdx >= len(layer.Tasks) {
		return nil
	}
	return &NextTask{
		LayerIndex: layerIdx,
		TaskIndex:  taskIdx,
		TaskID:     layer.Tasks[taskIdx].TaskID,
		Layer:      layer.Clone(),
		IsPreHook:  isPre,
	}
}

// GetLayers returns a copy of every layer, in index order.
func (s *Store) GetLayers() []*models.TaskLayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.TaskLayer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Clone()
	}
	return out
}

// GetLayer returns a copy of the layer at layerIndex.
func (s *Store) GetLayer(layerIndex int) (*models.TaskLayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.findLayerLocked(layerIndex)
	if err != nil {
		return nil, err
	}
	return l.Clone(), nil
}
