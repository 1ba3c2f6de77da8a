package taskstack

// Batch mutation support (spec.md §4.1 "modify_task_stack").
//
// Failure policy: each operation that violates an invariant appends to
// Errors; it does NOT roll back prior operations in the same batch. This
// preserves the source's documented-but-non-atomic behavior rather than
// adopting true all-or-nothing semantics — SPEC_FULL.md §9 records this as
// the resolved Open Question. Callers requiring all-or-nothing must
// pre-validate before calling ModifyTaskStack.

// OpKind identifies one kind of batch operation.
type OpKind string

const (
	OpCreateTasks           OpKind = "CREATE_TASKS"
	OpCreateLayers          OpKind = "CREATE_LAYERS"
	OpAddTasksToLayers      OpKind = "ADD_TASKS_TO_LAYERS"
	OpRemoveTasksFromLayers OpKind = "REMOVE_TASKS_FROM_LAYERS"
	OpReplaceTasksInLayers  OpKind = "REPLACE_TASKS_IN_LAYERS"
	OpUpdateLayerHooks      OpKind = "UPDATE_LAYER_HOOKS"
)

// NewTaskSpec describes one task to create in a CREATE_TASKS operation.
type NewTaskSpec struct {
	Description map[string]any
}

// NewLayerSpec describes one layer to create in a CREATE_LAYERS operation.
type NewLayerSpec struct {
	LayerIndex *int
	PreHook    map[string]any
	PostHook   map[string]any
}

// LayerTaskAddition describes one ADD_TASKS_TO_LAYERS entry.
type LayerTaskAddition struct {
	LayerIndex  int
	TaskID      string
	InsertIndex *int
}

// LayerTaskRemoval describes one REMOVE_TASKS_FROM_LAYERS entry.
type LayerTaskRemoval struct {
	LayerIndex int
	TaskID     string
}

// LayerTaskReplacement describes one REPLACE_TASKS_IN_LAYERS entry.
type LayerTaskReplacement struct {
	LayerIndex int
	OldID      string
	NewID      string
}

// LayerHookUpdate describes one UPDATE_LAYER_HOOKS entry.
type LayerHookUpdate struct {
	LayerIndex int
	PreHook    map[string]any
	PostHook   map[string]any
}

// Op is one typed operation within a batch. Exactly one of the slice fields
// is populated, matching Kind.
type Op struct {
	Kind OpKind

	Tasks       []NewTaskSpec
	Layers      []NewLayerSpec
	Additions   []LayerTaskAddition
	Removals    []LayerTaskRemoval
	Replacements []LayerTaskReplacement
	HookUpdates []LayerHookUpdate
}

// OpResult records the outcome of one element within one Op.
type OpResult struct {
	OK      bool
	Value   any
	Err     error
}

// BatchResult is the outcome of ModifyTaskStack.
type BatchResult struct {
	Success          bool
	Results          []OpResult
	Errors           []error
	CreatedTaskIDs   []string
	CreatedLayerIdxs []int
}

// ModifyTaskStack executes ops under a single critical section. See the
// package doc comment for the non-atomic failure policy.
func (s *Store) ModifyTaskStack(ops []Op) *BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &BatchResult{Success: true}

	for _, op := range ops {
		switch op.Kind {
		case OpCreateTasks:
			for _, spec := range op.Tasks {
				t := s.createTaskLocked(spec.Description)
				res.CreatedTaskIDs = append(res.CreatedTaskIDs, t.ID)
				res.Results = append(res.Results, OpResult{OK: true, Value: t.ID})
			}

		case OpCreateLayers:
			for _, spec := range op.Layers {
				l, err := s.createLayerLocked(spec.LayerIndex, spec.PreHook, spec.PostHook)
				if err != nil {
					res.Success = false
					res.Errors = append(res.Errors, err)
					res.Results = append(res.Results, OpResult{OK: false, Err: err})
					continue
				}
				res.CreatedLayerIdxs = append(res.CreatedLayerIdxs, l.LayerIndex)
				res.Results = append(res.Results, OpResult{OK: true, Value: l.LayerIndex})
			}

		case OpAddTasksToLayers:
			for _, a := range op.Additions {
				ok, err := s.addTaskToLayerLocked(a.LayerIndex, a.TaskID, a.InsertIndex)
				res.recordLocked(ok, err)
			}

		case OpRemoveTasksFromLayers:
			for _, r := range op.Removals {
				ok, err := s.removeTaskFromLayerLocked(r.LayerIndex, r.TaskID)
				res.recordLocked(ok, err)
			}

		case OpReplaceTasksInLayers:
			for _, r := range op.Replacements {
				ok, err := s.replaceTaskInLayerLocked(r.LayerIndex, r.OldID, r.NewID)
				res.recordLocked(ok, err)
			}

		case OpUpdateLayerHooks:
			for _, u := range op.HookUpdates {
				ok, err := s.updateLayerHooksLocked(u.LayerIndex, u.PreHook, u.PostHook)
				res.recordLocked(ok, err)
			}
		}
	}

	return res
}

func (r *BatchResult) recordLocked(ok bool, err error) {
	if err != nil {
		r.Success = false
		r.Errors = append(r.Errors, err)
		r.Results = append(r.Results, OpResult{OK: false, Err: err})
		return
	}
	r.Results = append(r.Results, OpResult{OK: ok})
}
