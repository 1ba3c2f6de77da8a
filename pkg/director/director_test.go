package director

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/assistant"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
	"github.com/storyforge-ai/storyforge/pkg/messages"
	"github.com/storyforge-ai/storyforge/pkg/models"
	"github.com/storyforge-ai/storyforge/pkg/registry"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

type fakeAgent struct{}

func (fakeAgent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	return map[string]any{"ok": true}, nil
}

type fakeEvaluator struct{}

func (fakeEvaluator) CheckStructure(output map[string]any, upstream map[string]any) []string {
	return nil
}
func (fakeEvaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	return descriptor.CreativeResult{OverallPass: true}, nil
}
func (fakeEvaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	return descriptor.AssetResult{OverallPass: true}, nil
}

func newTestDirector(t *testing.T) *Director {
	t.Helper()
	tasks := taskstack.New()
	msgs := messages.New(tasks)

	reg := registry.New(t.TempDir(), nil)
	reg.RegisterPipelineAgents(&descriptor.AgentDescriptor{
		AgentName: "StoryAgent",
		AssetKey:  "story",
		AgentFactory: func(llm any) descriptor.Agent { return fakeAgent{} },
		EvaluatorFactory: func() descriptor.Evaluator { return fakeEvaluator{} },
		BuildInput: func(projectID, draftID string, assets, config map[string]any) any { return nil },
	})

	ws, err := workspace.New(t.TempDir(), "ws_1", 1000)
	require.NoError(t, err)

	svc := &assistant.Service{
		Assistant: assistant.New("storyforge", "test"),
		Registry:  reg,
		Tasks:     tasks,
		Execs:     execstore.New(),
		Workspace: ws,
	}

	return New(tasks, msgs, svc, &StubPlanner{DefaultAgent: "StoryAgent"}, 0.01)
}

func TestCycleCreatesTaskAndDelegatesOnUnreadMessage(t *testing.T) {
	d := newTestDirector(t)
	d.Messages.CreateUserMessage("write a story about a lighthouse", models.SenderUser, "")

	d.cycle(context.Background())

	tasks := d.Tasks.ListTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskCompleted, tasks[0].Status)

	msgs := d.Messages.List()
	var foundReflection bool
	for _, m := range msgs {
		if m.SenderType == models.SenderDirector {
			foundReflection = true
		}
	}
	assert.True(t, foundReflection)
}

func TestCycleIsNoopWithoutUnreadMessages(t *testing.T) {
	d := newTestDirector(t)
	d.cycle(context.Background())
	assert.Empty(t, d.Tasks.ListTasks())
}

func TestStartStopRunsLoop(t *testing.T) {
	d := newTestDirector(t)
	d.Messages.CreateUserMessage("hello", models.SenderUser, "")
	d.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	d.Stop()
	assert.NotEmpty(t, d.Tasks.ListTasks())
}
