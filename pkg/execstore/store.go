// Package execstore implements the ExecutionStore: a record of every
// sub-agent invocation, keyed by id and indexed by task (spec.md §4.3).
// Same single-mutex-guarded-map shape as pkg/taskstack and pkg/messages.
package execstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/models"
)

// Store holds every AgentExecution for the process.
type Store struct {
	mu         sync.RWMutex
	executions map[string]*models.AgentExecution
	byTask     map[string][]string // taskID -> execution ids, insertion order
	counter    int
}

// New creates an empty execution store.
func New() *Store {
	return &Store{
		executions: make(map[string]*models.AgentExecution),
		byTask:     make(map[string][]string),
	}
}

func randSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Create allocates a new PENDING execution for agentID acting on taskID.
func (s *Store) Create(assistantID, agentID, taskID string, inputs map[string]any) *models.AgentExecution {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	e := &models.AgentExecution{
		ID:          fmt.Sprintf("exec_%d_%s", s.counter, randSuffix()),
		AssistantID: assistantID,
		AgentID:     agentID,
		TaskID:      taskID,
		Status:      models.ExecPending,
		Inputs:      inputs,
		CreatedAt:   time.Now(),
	}
	s.executions[e.ID] = e
	s.byTask[taskID] = append(s.byTask[taskID], e.ID)
	return e.Clone()
}

// Start marks an execution IN_PROGRESS and stamps StartedAt.
func (s *Store) Start(id string) (*models.AgentExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	now := time.Now()
	e.Status = models.ExecInProgress
	e.StartedAt = &now
	return e.Clone(), nil
}

// Complete marks an execution COMPLETED with its results, or FAILED with an
// error message if execErr is non-empty.
func (s *Store) Complete(id string, results map[string]any, execErr string) (*models.AgentExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	now := time.Now()
	e.CompletedAt = &now
	if execErr != "" {
		e.Status = models.ExecFailed
		e.Error = execErr
	} else {
		e.Status = models.ExecCompleted
		e.Results = results
	}
	return e.Clone(), nil
}

// Get returns a copy of the execution with id.
func (s *Store) Get(id string) (*models.AgentExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return e.Clone(), nil
}

// ListByTask returns every execution for taskID, oldest first.
func (s *Store) ListByTask(taskID string) []*models.AgentExecution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byTask[taskID]
	out := make([]*models.AgentExecution, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.executions[id].Clone())
	}
	return out
}

// List returns every execution, in creation order.
func (s *Store) List() []*models.AgentExecution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AgentExecution, 0, len(s.executions))
	for _, ids := range s.byTask {
		for _, id := range ids {
			out = append(out, s.executions[id].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// PruneCompletedBefore removes COMPLETED/FAILED executions whose
// CompletedAt is older than cutoff, used by pkg/cleanup's retention loop.
// IN_PROGRESS/PENDING executions are never pruned.
func (s *Store) PruneCompletedBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for id, e := range s.executions {
		if e.CompletedAt == nil || e.CompletedAt.After(cutoff) {
			continue
		}
		if e.Status != models.ExecCompleted && e.Status != models.ExecFailed {
			continue
		}
		delete(s.executions, id)
		ids := s.byTask[e.TaskID]
		for i, tid := range ids {
			if tid == id {
				s.byTask[e.TaskID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		removed++
	}
	return removed
}
