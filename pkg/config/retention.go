package config

import "time"

// RetentionConfig controls periodic pruning of completed agent executions
// (pkg/cleanup), grounded in the teacher's retention config shape. Workspace
// log entries are never pruned — spec.md §3/§8 require LogEntry to be
// append-only — so this config has no log-retention knob.
type RetentionConfig struct {
	// ExecutionRetentionDays is how long to keep COMPLETED/FAILED
	// AgentExecution records before pruning.
	ExecutionRetentionDays int `yaml:"execution_retention_days"`

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		ExecutionRetentionDays: 90,
		CleanupInterval:        12 * time.Hour,
	}
}
