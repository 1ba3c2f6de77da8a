// Package cleanup provides periodic data retention enforcement: pruning
// old completed/failed AgentExecution records, grounded in the teacher's
// pkg/cleanup.Service (context.WithCancel + ticker + graceful Stop shape).
//
// Workspace log entries are never pruned here — spec.md §3/§8 require
// LogEntry to be append-only, with no operation ever rewriting or
// deleting entries, so only AgentExecution records (a deliberately
// softer invariant) are subject to retention.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/config"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
)

// Service periodically enforces the RetentionConfig: execution records
// older than ExecutionRetentionDays are dropped from the ExecutionStore.
// Idempotent.
type Service struct {
	config *config.RetentionConfig
	execs  *execstore.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, execs *execstore.Store) *Service {
	return &Service{config: cfg, execs: execs}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"execution_retention_days", s.config.ExecutionRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll()

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll()
		}
	}
}

func (s *Service) runAll() {
	s.pruneOldExecutions()
}

func (s *Service) pruneOldExecutions() {
	if s.execs == nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.config.ExecutionRetentionDays)
	count := s.execs.PruneCompletedBefore(cutoff)
	if count > 0 {
		slog.Info("retention: pruned old executions", "count", count)
	}
}
