// Package director implements the Director loop: poll unread messages,
// plan task-stack mutations, delegate execution to the Assistant, and
// reflect the result back into the user-facing transcript.
//
// Grounded line-for-line in original_source/director_agent/director.py's
// DirectorAgent._cycle, translated from its polling while-loop into a
// context.WithCancel + time.Ticker loop (pkg/cleanup.Service's shape).
// The reasoning/planning policy stays a pluggable stub (spec.md §4.8
// scopes it out); only the poll/plan/delegate/reflect skeleton is
// specified here.
package director

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storyforge-ai/storyforge/pkg/assistant"
	"github.com/storyforge-ai/storyforge/pkg/messages"
	"github.com/storyforge-ai/storyforge/pkg/models"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
)

// AssistantID is the well-known id of the single global Assistant, matching
// the "assistant_global" singleton pkg/assistant.New allocates.
const AssistantID = "assistant_global"

// Plan is the result of a planning pass: a batch of task-stack operations
// plus, optionally, which agent should run once those operations land.
type Plan struct {
	Ops          []taskstack.Op
	DelegateToID string // agent id to invoke for the resulting frontier task; empty = skip delegation this cycle
}

// Planner turns an incoming message (and the current stack state) into a
// Plan. Production policy is pluggable and out of scope (spec.md §4.8);
// StubPlanner below is the only implementation this package ships.
type Planner interface {
	Plan(msg *models.UserMessage, tasks *taskstack.Store) (*Plan, error)
}

// StubPlanner wraps every incoming message's content into a single task in
// a single layer 0, delegating to DefaultAgent. It never re-plans after
// reflection — that policy decision is explicitly out of scope.
type StubPlanner struct {
	DefaultAgent string
}

// Plan implements Planner.
func (p *StubPlanner) Plan(msg *models.UserMessage, tasks *taskstack.Store) (*Plan, error) {
	if msg == nil {
		return &Plan{}, nil
	}
	task := tasks.CreateTask(map[string]any{"overall_description": msg.Content})
	ops := []taskstack.Op{
		{Kind: taskstack.OpAddTasksToLayers, Additions: []taskstack.LayerTaskAddition{{LayerIndex: 0, TaskID: task.ID}}},
	}
	if len(tasks.GetLayers()) == 0 {
		ops = append([]taskstack.Op{{Kind: taskstack.OpCreateLayers, Layers: []taskstack.NewLayerSpec{{}}}}, ops...)
	}
	return &Plan{Ops: ops, DelegateToID: p.DefaultAgent}, nil
}

// Director runs the poll/plan/delegate/reflect loop on a ticker.
type Director struct {
	Tasks     *taskstack.Store
	Messages  *messages.Store
	Assistant *assistant.Service
	Planner   Planner

	PollingInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Director. pollingIntervalSeconds mirrors spec.md §6's
// POLLING_INTERVAL env var (float seconds, default 2.0).
func New(tasks *taskstack.Store, msgs *messages.Store, asst *assistant.Service, planner Planner, pollingIntervalSeconds float64) *Director {
	if pollingIntervalSeconds <= 0 {
		pollingIntervalSeconds = 2.0
	}
	return &Director{
		Tasks:           tasks,
		Messages:        msgs,
		Assistant:       asst,
		Planner:         planner,
		PollingInterval: time.Duration(pollingIntervalSeconds * float64(time.Second)),
	}
}

// Start launches the background poll loop.
func (d *Director) Start(ctx context.Context) {
	if d.cancel != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	go d.run(ctx)
	slog.Info("director started", "polling_interval", d.PollingInterval)
}

// Stop signals the loop to exit and waits for it to finish.
func (d *Director) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	slog.Info("director stopped")
}

func (d *Director) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cycle(ctx)
		}
	}
}

// cycle runs one poll -> plan -> delegate -> reflect pass. Mirrors
// DirectorAgent._cycle: errors within a cycle are logged, never fatal —
// the loop always proceeds to the next tick.
func (d *Director) cycle(ctx context.Context) {
	user := models.SenderUser
	unread := d.Messages.ListUnread(&user, true, false)
	if len(unread) == 0 {
		return
	}
	msg := unread[0]

	plan, err := d.Planner.Plan(msg, d.Tasks)
	if err != nil {
		slog.Error("director: planning failed", "message_id", msg.ID, "error", err)
		return
	}

	if len(plan.Ops) > 0 {
		result := d.Tasks.ModifyTaskStack(plan.Ops)
		if !result.Success {
			slog.Warn("director: plan applied with partial failures", "message_id", msg.ID, "errors", result.Errors)
		}
	}

	var summary string
	if plan.DelegateToID != "" {
		summary = d.delegate(ctx, plan.DelegateToID)
	} else {
		summary = "Plan applied; no agent delegation this cycle."
	}

	read := models.Read
	if _, err := d.Messages.UpdateReadStatus(msg.ID, &read, nil); err != nil {
		slog.Error("director: failed to mark message read", "message_id", msg.ID, "error", err)
	}
	d.Messages.CreateUserMessage(summary, models.SenderDirector, msg.TaskID)
}

func (d *Director) delegate(ctx context.Context, agentID string) string {
	next := d.Tasks.GetNextTask()
	if next == nil {
		return "No frontier task to delegate."
	}

	status := models.TaskInProgress
	if _, err := d.Tasks.UpdateTask(next.TaskID, taskstack.TaskUpdate{Status: &status}); err != nil {
		slog.Error("director: failed to mark task in progress", "task_id", next.TaskID, "error", err)
	}

	result, err := d.Assistant.ExecuteForTask(ctx, agentID, next.TaskID, nil)
	if err != nil {
		slog.Error("director: execution failed", "task_id", next.TaskID, "agent_id", agentID, "error", err)
		failed := models.TaskFailed
		d.Tasks.UpdateTask(next.TaskID, taskstack.TaskUpdate{Status: &failed})
		d.Tasks.AdvanceExecutionPointer()
		return fmt.Sprintf("Task %s failed: %v", next.TaskID, err)
	}

	completed := models.TaskCompleted
	if result.Status == models.ExecFailed {
		completed = models.TaskFailed
	}
	d.Tasks.UpdateTask(next.TaskID, taskstack.TaskUpdate{Status: &completed})
	d.Tasks.AdvanceExecutionPointer()

	if result.Status == models.ExecFailed {
		return fmt.Sprintf("Task %s failed: %s", next.TaskID, result.Error)
	}
	return fmt.Sprintf("Task %s completed via %s.", next.TaskID, agentID)
}
