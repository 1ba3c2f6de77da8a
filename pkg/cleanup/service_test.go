package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storyforge-ai/storyforge/pkg/config"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
)

func TestRunAllPrunesOldExecutionsOnly(t *testing.T) {
	execs := execstore.New()
	e1 := execs.Create("assistant_global", "story", "task_1", nil)
	execs.Start(e1.ID)
	execs.Complete(e1.ID, map[string]any{"ok": true}, "")

	e2 := execs.Create("assistant_global", "story", "task_1", nil)
	execs.Start(e2.ID)
	// Leave e2 in progress — never eligible for pruning.

	cfg := &config.RetentionConfig{
		ExecutionRetentionDays: 1,
		CleanupInterval:        time.Hour,
	}

	svc := NewService(cfg, execs)
	svc.runAll()

	// Freshly completed execution is newer than the cutoff, so it survives.
	_, err := execs.Get(e1.ID)
	assert.NoError(t, err)
	_, err = execs.Get(e2.ID)
	assert.NoError(t, err)
}

func TestPruneOldExecutionsRemovesStaleCompletedRecords(t *testing.T) {
	execs := execstore.New()
	e1 := execs.Create("assistant_global", "story", "task_1", nil)
	execs.Start(e1.ID)
	execs.Complete(e1.ID, map[string]any{"ok": true}, "")

	removed := execs.PruneCompletedBefore(time.Now().Add(1 * time.Hour))
	assert.Equal(t, 1, removed)
	_, err := execs.Get(e1.ID)
	assert.Error(t, err)
}

func TestStartAndStopRunsLoopWithoutPanicking(t *testing.T) {
	execs := execstore.New()

	cfg := &config.RetentionConfig{
		ExecutionRetentionDays: 30,
		CleanupInterval:        10 * time.Millisecond,
	}
	svc := NewService(cfg, execs)
	svc.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
}
