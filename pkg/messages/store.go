// Package messages implements the MessageStore: user/director/subagent
// transcript messages with independent director/user read flags (spec.md
// §4.2). Shaped like the teacher's pkg/session.Manager — a single mutex
// guarding a map, scaled up with the read-flag and task-reference semantics
// spec.md demands.
package messages

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/apperrors"
	"github.com/storyforge-ai/storyforge/pkg/models"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
)

// TaskLookup is the narrow slice of TaskStackStore the MessageStore needs to
// implement IsNewTask: looking a task up by id without taking on a circular
// dependency on the full store type.
type TaskLookup interface {
	GetTask(id string) (*models.Task, error)
}

var _ TaskLookup = (*taskstack.Store)(nil)

// Store holds every UserMessage for the process.
type Store struct {
	mu       sync.RWMutex
	messages map[string]*models.UserMessage
	counter  int
	tasks    TaskLookup
}

// New creates an empty message store. tasks is used by IsNewTask to check a
// referenced task's current status; it may be nil if that feature is unused.
func New(tasks TaskLookup) *Store {
	return &Store{
		messages: make(map[string]*models.UserMessage),
		tasks:    tasks,
	}
}

func randSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// CreateUserMessage allocates a new message with both read flags UNREAD.
func (s *Store) CreateUserMessage(content string, sender models.MessageSender, taskID string) *models.UserMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	m := &models.UserMessage{
		ID:                 fmt.Sprintf("msg_%d_%s", s.counter, randSuffix()),
		Content:            content,
		Timestamp:          time.Now(),
		SenderType:         sender,
		DirectorReadStatus: models.Unread,
		UserReadStatus:     models.Unread,
		TaskID:             taskID,
	}
	s.messages[m.ID] = m
	return m.Clone()
}

// Get returns a copy of the message with id.
func (s *Store) Get(id string) (*models.UserMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m.Clone(), nil
}

// List returns a copy of every message, newest-first.
func (s *Store) List() []*models.UserMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserMessage, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Clone())
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(msgs []*models.UserMessage) {
	for i := 1; i < len(msgs); i++ {
		for j := i; j > 0 && msgs[j].Timestamp.After(msgs[j-1].Timestamp); j-- {
			msgs[j], msgs[j-1] = msgs[j-1], msgs[j]
		}
	}
}

// UpdateReadStatus independently sets the director and/or user read flag.
// A nil pointer leaves the corresponding flag unchanged.
func (s *Store) UpdateReadStatus(id string, director, user *models.ReadStatus) (*models.UserMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if director != nil {
		m.DirectorReadStatus = *director
	}
	if user != nil {
		m.UserReadStatus = *user
	}
	return m.Clone(), nil
}

// ListUnread returns messages where at least one selected flag is UNREAD,
// after optional sender filtering. If neither checkDirector nor checkUser is
// requested, defaults to director-only (SPEC_FULL.md §9 decision, preserving
// the source's default).
func (s *Store) ListUnread(sender *models.MessageSender, checkDirector, checkUser bool) []*models.UserMessage {
	if !checkDirector && !checkUser {
		checkDirector = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.UserMessage
	for _, m := range s.messages {
		if sender != nil && m.SenderType != *sender {
			continue
		}
		unread := (checkDirector && m.DirectorReadStatus == models.Unread) ||
			(checkUser && m.UserReadStatus == models.Unread)
		if unread {
			out = append(out, m.Clone())
		}
	}
	sortNewestFirst(out)
	return out
}

// IsNewTask reports whether msgID references a task that is currently
// PENDING.
func (s *Store) IsNewTask(msgID string) (bool, error) {
	s.mu.RLock()
	m, ok := s.messages[msgID]
	s.mu.RUnlock()
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if m.TaskID == "" || s.tasks == nil {
		return false, nil
	}
	task, err := s.tasks.GetTask(m.TaskID)
	if err != nil {
		return false, nil
	}
	return task.Status == models.TaskPending, nil
}
