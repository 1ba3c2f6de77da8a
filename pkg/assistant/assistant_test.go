package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
	"github.com/storyforge-ai/storyforge/pkg/registry"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

type fakeAgent struct{}

func (fakeAgent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	return map[string]any{
		"story_text": "once upon a time",
		"draft": map[string]any{
			"file_content": []byte("draft bytes"),
			"filename":     "draft.txt",
		},
	}, nil
}

type fakeEvaluator struct{}

func (fakeEvaluator) CheckStructure(output, upstream map[string]any) []string { return nil }
func (fakeEvaluator) EvaluateCreative(ctx context.Context, output, upstream map[string]any) (descriptor.CreativeResult, error) {
	return descriptor.CreativeResult{OverallPass: true}, nil
}
func (fakeEvaluator) EvaluateAsset(ctx context.Context, assetData, upstream map[string]any) (descriptor.AssetResult, error) {
	return descriptor.AssetResult{OverallPass: true}, nil
}

func TestExecuteForTaskRunsAgentAndPersistsFiles(t *testing.T) {
	dir := t.TempDir()
	ws, err := workspace.New(dir, "ws1", 0)
	require.NoError(t, err)

	ts := taskstack.New()
	task := ts.CreateTask(map[string]any{"overall_description": "a tale of two cities"})

	reg := registry.New(dir, nil)
	d := &descriptor.AgentDescriptor{
		AgentName: "StoryAgent",
		AssetKey:  "story",
		AgentFactory: func(llm any) descriptor.Agent {
			return fakeAgent{}
		},
		EvaluatorFactory: func() descriptor.Evaluator { return fakeEvaluator{} },
		BuildInput: func(projectID, draftID string, assets, config map[string]any) any {
			return assets["draft_idea"]
		},
	}
	d.Normalize()
	reg.RegisterPipelineAgents(d)

	svc := &Service{
		Assistant:  New("Assistant", "test"),
		Registry:   reg,
		Tasks:      ts,
		Execs:      execstore.New(),
		Workspace:  ws,
		ScratchDir: dir,
	}

	summary, err := svc.ExecuteForTask(context.Background(), "StoryAgent", task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "once upon a time", summary.Results["story_text"])

	files := ws.Files.List(workspace.FileFilter{})
	require.Len(t, files, 1)
	assert.Equal(t, "draft.txt", files[0].Filename)
}
