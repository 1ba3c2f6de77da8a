package taskstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/models"
)

func newStoreWithLayer0(t *testing.T) (*Store, []string) {
	t.Helper()
	s := New()
	_, err := s.CreateLayer(nil, nil, nil)
	require.NoError(t, err)

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = s.CreateTask(map[string]any{"n": i}).ID
	}
	for _, id := range ids {
		ok, err := s.AddTaskToLayer(0, id, nil)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return s, ids
}

// Scenario 1 (spec.md §8): pointer safety.
func TestPointerSafety(t *testing.T) {
	s, ids := newStoreWithLayer0(t)
	require.True(t, s.SetExecutionPointer(0, 1, false, false))

	ok, err := s.RemoveTaskFromLayer(0, ids[0])
	assert.False(t, ok)
	assert.True(t, apperrors.IsInvariantViolation(err))

	ok, err = s.RemoveTaskFromLayer(0, ids[2])
	assert.NoError(t, err)
	assert.True(t, ok)

	newTask := s.CreateTask(map[string]any{"replacement": true})
	ok, err = s.ReplaceTaskInLayer(0, ids[1], newTask.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	oldTask, err := s.GetTask(ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.TaskCancelled, oldTask.Status)
}

// Scenario 2 (spec.md §8): batch partial failure.
func TestBatchPartialFailure(t *testing.T) {
	s, _ := newStoreWithLayer0(t)

	result := s.ModifyTaskStack([]Op{
		{Kind: OpCreateTasks, Tasks: []NewTaskSpec{{Description: map[string]any{}}}},
		{Kind: OpRemoveTasksFromLayers, Removals: []LayerTaskRemoval{{LayerIndex: 0, TaskID: "nope"}}},
	})

	assert.False(t, result.Success)
	assert.Len(t, result.CreatedTaskIDs, 1)
	assert.Len(t, result.Errors, 1)
}

// Scenario 3 (spec.md §8): insert-with-tasks atomicity.
func TestInsertLayerWithTasksAtomicity(t *testing.T) {
	s := New()
	_, err := s.CreateLayer(nil, nil, nil) // L0
	require.NoError(t, err)
	_, err = s.CreateLayer(nil, nil, nil) // L1
	require.NoError(t, err)

	t1 := s.CreateTask(map[string]any{}).ID
	t2 := s.CreateTask(map[string]any{}).ID

	newLayer, err := s.InsertLayerWithTasks(1, []string{t1, t2}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, newLayer.LayerIndex)
	if assert.Len(t, newLayer.Tasks, 2) {
		assert.Equal(t, t1, newLayer.Tasks[0].TaskID)
		assert.Equal(t, t2, newLayer.Tasks[1].TaskID)
	}

	layers := s.GetLayers()
	require.Len(t, layers, 3)
	assert.Equal(t, 2, layers[2].LayerIndex) // old L1 shifted to index 2
}

func TestAdvanceExecutionPointerIdempotentAtTail(t *testing.T) {
	s, _ := newStoreWithLayer0(t)
	require.True(t, s.SetExecutionPointer(0, 2, false, false))

	ok := s.AdvanceExecutionPointer()
	assert.False(t, ok)

	p := s.GetExecutionPointer()
	assert.Equal(t, 0, p.LayerIndex)
	assert.Equal(t, 2, p.TaskIndex)

	// Idempotent: calling again makes no further change.
	ok = s.AdvanceExecutionPointer()
	assert.False(t, ok)
	p2 := s.GetExecutionPointer()
	assert.Equal(t, *p, *p2)
}

func TestAdvanceSkipsEmptyLayers(t *testing.T) {
	s := New()
	_, err := s.CreateLayer(nil, nil, nil) // L0, empty
	require.NoError(t, err)
	_, err = s.CreateLayer(nil, nil, nil) // L1, empty
	require.NoError(t, err)
	_, err = s.CreateLayer(nil, nil, nil) // L2
	require.NoError(t, err)
	id := s.CreateTask(map[string]any{}).ID
	_, err = s.AddTaskToLayer(2, id, nil)
	require.NoError(t, err)

	require.True(t, s.SetExecutionPointer(0, 0, false, false))
	// Layer 0 has no tasks at index 0: GetNextTask returns nil.
	assert.Nil(t, s.GetNextTask())

	ok := s.AdvanceExecutionPointer()
	assert.True(t, ok)
	p := s.GetExecutionPointer()
	assert.Equal(t, 2, p.LayerIndex)
	assert.Equal(t, 0, p.TaskIndex)
}

func TestLayerIndicesStayContiguous(t *testing.T) {
	s := New()
	_, err := s.CreateLayer(nil, nil, nil)
	require.NoError(t, err)
	zero := 0
	_, err = s.CreateLayer(&zero, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateLayer(nil, nil, nil)
	require.NoError(t, err)

	for i, l := range s.GetLayers() {
		assert.Equal(t, i, l.LayerIndex)
	}
}

func TestDeleteTaskRemovesAllLayerReferences(t *testing.T) {
	s := New()
	_, err := s.CreateLayer(nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateLayer(nil, nil, nil)
	require.NoError(t, err)
	id := s.CreateTask(map[string]any{}).ID
	_, err = s.AddTaskToLayer(0, id, nil)
	require.NoError(t, err)
	_, err = s.AddTaskToLayer(1, id, nil)
	require.NoError(t, err)

	ok, err := s.DeleteTask(id)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, l := range s.GetLayers() {
		assert.False(t, l.HasTask(id))
	}
	_, err = s.GetTask(id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddTaskToLayerRejectsAtOrBeforeFrontier(t *testing.T) {
	s, ids := newStoreWithLayer0(t)
	require.True(t, s.SetExecutionPointer(0, 1, false, false))

	newID := s.CreateTask(map[string]any{}).ID
	zero := 0
	ok, err := s.AddTaskToLayer(0, newID, &zero)
	assert.False(t, ok)
	assert.True(t, apperrors.IsInvariantViolation(err))

	two := 2
	ok, err = s.AddTaskToLayer(0, newID, &two)
	assert.NoError(t, err)
	assert.True(t, ok)
	_ = ids
}
