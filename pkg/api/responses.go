package api

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// MessageCheckResponse is returned by GET /api/messages/{id}/check.
type MessageCheckResponse struct {
	Message   any    `json:"message"`
	IsNewTask bool   `json:"is_new_task"`
	TaskState string `json:"task_state,omitempty"`
}

// BatchResponse mirrors taskstack.BatchResult for the HTTP boundary.
type BatchResponse struct {
	Success          bool     `json:"success"`
	CreatedTaskIDs   []string `json:"created_task_ids,omitempty"`
	CreatedLayerIdxs []int    `json:"created_layer_indexes,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// AgentInputsResponse is returned by GET /api/assistant/agents/{id}/inputs.
type AgentInputsResponse struct {
	AgentName    string   `json:"agent_name"`
	AssetKey     string   `json:"asset_key"`
	UpstreamKeys []string `json:"upstream_keys"`
	CatalogEntry string   `json:"catalog_entry,omitempty"`
}

// DeleteResponse is the generic boolean ack returned by task deletion and
// by the layer hook/task mutation endpoints.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// SearchResponse is returned by GET /workspace/search.
type SearchResponse struct {
	Files  any `json:"files,omitempty"`
	Memory any `json:"memory,omitempty"`
	Logs   any `json:"logs,omitempty"`
}
