package models

import "time"

// ExecutionStatus is the lifecycle state of an AgentExecution.
type ExecutionStatus string

const (
	ExecPending    ExecutionStatus = "PENDING"
	ExecInProgress ExecutionStatus = "IN_PROGRESS"
	ExecCompleted  ExecutionStatus = "COMPLETED"
	ExecFailed     ExecutionStatus = "FAILED"
)

// AgentExecution records one invocation of a sub-agent against a task.
// Append-only beyond Status/Results/Error: the id, assistant/agent/task ids,
// and Inputs never change after creation (spec.md §3).
type AgentExecution struct {
	ID          string          `json:"id"`
	AssistantID string          `json:"assistant_id"`
	AgentID     string          `json:"agent_id"`
	TaskID      string          `json:"task_id"`
	Status      ExecutionStatus `json:"status"`
	Inputs      map[string]any  `json:"inputs"`
	Results     map[string]any  `json:"results,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DurationMS returns the execution's wall-clock duration in milliseconds,
// or -1 if the execution has not completed. Supplemented convenience field
// (SPEC_FULL.md §3) computed at read time rather than stored.
func (e *AgentExecution) DurationMS() int64 {
	if e.StartedAt == nil || e.CompletedAt == nil {
		return -1
	}
	return e.CompletedAt.Sub(*e.StartedAt).Milliseconds()
}

// Clone returns a deep copy of the execution.
func (e *AgentExecution) Clone() *AgentExecution {
	if e == nil {
		return nil
	}
	c := *e
	c.Inputs = cloneMap(e.Inputs)
	c.Results = cloneMap(e.Results)
	if e.StartedAt != nil {
		t := *e.StartedAt
		c.StartedAt = &t
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
