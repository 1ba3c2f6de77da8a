package api

// CreateMessageRequest is the body for POST /api/messages/create.
type CreateMessageRequest struct {
	Content    string `json:"content"`
	SenderType string `json:"sender_type"`
	TaskID     string `json:"task_id,omitempty"`
}

// UpdateReadStatusRequest is the body for PUT /api/messages/{id}/read-status.
type UpdateReadStatusRequest struct {
	DirectorReadStatus *string `json:"director_read_status,omitempty"`
	UserReadStatus     *string `json:"user_read_status,omitempty"`
}

// CreateTaskRequest is the body for POST /api/tasks/create.
type CreateTaskRequest struct {
	Description map[string]any `json:"description"`
}

// UpdateTaskRequest is the body for PUT /api/tasks/{id}.
type UpdateTaskRequest struct {
	Description map[string]any `json:"description,omitempty"`
	Progress    map[string]any `json:"progress,omitempty"`
	Results     map[string]any `json:"results,omitempty"`
}

// UpdateTaskStatusRequest is the body for PUT /api/tasks/{id}/status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// CreateLayerRequest is the body for POST /api/layers/create.
type CreateLayerRequest struct {
	LayerIndex *int           `json:"layer_index,omitempty"`
	PreHook    map[string]any `json:"pre_hook,omitempty"`
	PostHook   map[string]any `json:"post_hook,omitempty"`
}

// UpdateLayerHooksRequest is the body for PUT /api/layers/{i}/hooks.
type UpdateLayerHooksRequest struct {
	PreHook  map[string]any `json:"pre_hook,omitempty"`
	PostHook map[string]any `json:"post_hook,omitempty"`
}

// AddTaskToLayerRequest is the body for POST /api/layers/{i}/tasks.
type AddTaskToLayerRequest struct {
	TaskID      string `json:"task_id"`
	InsertIndex *int   `json:"insert_index,omitempty"`
}

// ReplaceTaskInLayerRequest is the body for POST /api/layers/{i}/tasks/replace.
type ReplaceTaskInLayerRequest struct {
	OldID string `json:"old_id"`
	NewID string `json:"new_id"`
}

// SetExecutionPointerRequest is the body for PUT /api/execution-pointer/set.
type SetExecutionPointerRequest struct {
	LayerIndex int  `json:"layer_index"`
	TaskIndex  int  `json:"task_index"`
	InPreHook  bool `json:"in_pre_hook,omitempty"`
	InPostHook bool `json:"in_post_hook,omitempty"`
}

// InsertLayerRequest is the body for POST /api/task-stack/insert-layer.
type InsertLayerRequest struct {
	InsertIndex int            `json:"insert_index"`
	TaskIDs     []string       `json:"task_ids,omitempty"`
	PreHook     map[string]any `json:"pre_hook,omitempty"`
	PostHook    map[string]any `json:"post_hook,omitempty"`
}

// ModifyTaskStackRequest is the body for POST /api/task-stack/modify.
type ModifyTaskStackRequest struct {
	Ops []OpRequest `json:"ops"`
}

// OpRequest is one batch operation in a ModifyTaskStackRequest.
type OpRequest struct {
	Kind         string                  `json:"kind"`
	Tasks        []CreateTaskRequest     `json:"tasks,omitempty"`
	Layers       []CreateLayerRequest    `json:"layers,omitempty"`
	Additions    []AddTaskToLayerOp      `json:"additions,omitempty"`
	Removals     []RemoveTaskFromLayerOp `json:"removals,omitempty"`
	Replacements []ReplaceTaskInLayerOp  `json:"replacements,omitempty"`
	HookUpdates  []UpdateLayerHooksOp    `json:"hook_updates,omitempty"`
}

// AddTaskToLayerOp is one ADD_TASKS_TO_LAYERS entry within a batch request.
type AddTaskToLayerOp struct {
	LayerIndex  int    `json:"layer_index"`
	TaskID      string `json:"task_id"`
	InsertIndex *int   `json:"insert_index,omitempty"`
}

// RemoveTaskFromLayerOp is one REMOVE_TASKS_FROM_LAYERS entry within a batch request.
type RemoveTaskFromLayerOp struct {
	LayerIndex int    `json:"layer_index"`
	TaskID     string `json:"task_id"`
}

// ReplaceTaskInLayerOp is one REPLACE_TASKS_IN_LAYERS entry within a batch request.
type ReplaceTaskInLayerOp struct {
	LayerIndex int    `json:"layer_index"`
	OldID      string `json:"old_id"`
	NewID      string `json:"new_id"`
}

// UpdateLayerHooksOp is one UPDATE_LAYER_HOOKS entry within a batch request.
type UpdateLayerHooksOp struct {
	LayerIndex int            `json:"layer_index"`
	PreHook    map[string]any `json:"pre_hook,omitempty"`
	PostHook   map[string]any `json:"post_hook,omitempty"`
}

// ExecuteAgentRequest is the body for POST /api/assistant/execute.
type ExecuteAgentRequest struct {
	AgentID          string         `json:"agent_id"`
	TaskID           string         `json:"task_id"`
	AdditionalInputs map[string]any `json:"additional_inputs,omitempty"`
}

// StoreFileRequest is a JSON file-upload body (content base64-encoded by the
// JSON decoder's []byte handling). No route in server.go binds it.
type StoreFileRequest struct {
	Content     []byte         `json:"content"`
	Filename    string         `json:"filename"`
	Description string         `json:"description,omitempty"`
	CreatedBy   string         `json:"created_by,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	AgentID     string         `json:"agent_id,omitempty"`
	TaskID      string         `json:"task_id,omitempty"`
}

// WriteMemoryRequest is the body for POST /workspace/memory.
type WriteMemoryRequest struct {
	Content   string `json:"content"`
	Append    bool   `json:"append,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}
