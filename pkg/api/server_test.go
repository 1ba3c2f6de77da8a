package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge-ai/storyforge/pkg/assistant"
	"github.com/storyforge-ai/storyforge/pkg/config"
	"github.com/storyforge-ai/storyforge/pkg/descriptor"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
	"github.com/storyforge-ai/storyforge/pkg/messages"
	"github.com/storyforge-ai/storyforge/pkg/registry"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

type testAgent struct{}

func (testAgent) Run(ctx context.Context, input any, upstream map[string]any, mctx *descriptor.MaterializeContext) (map[string]any, error) {
	return map[string]any{"ok": true}, nil
}

type testEvaluator struct{}

func (testEvaluator) CheckStructure(output map[string]any, upstream map[string]any) []string {
	return nil
}
func (testEvaluator) EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (descriptor.CreativeResult, error) {
	return descriptor.CreativeResult{OverallPass: true}, nil
}
func (testEvaluator) EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (descriptor.AssetResult, error) {
	return descriptor.AssetResult{OverallPass: true}, nil
}

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	tasks := taskstack.New()
	msgs := messages.New(tasks)
	execs := execstore.New()

	reg := registry.New(t.TempDir(), nil)
	reg.RegisterPipelineAgents(&descriptor.AgentDescriptor{
		AgentName:        "StoryAgent",
		AssetKey:         "story",
		AgentFactory:     func(llm any) descriptor.Agent { return testAgent{} },
		EvaluatorFactory: func() descriptor.Evaluator { return testEvaluator{} },
	})

	ws, err := workspace.New(t.TempDir(), "ws_1", 1000)
	require.NoError(t, err)

	svc := &assistant.Service{
		Assistant: assistant.New("storyforge", "test"),
		Registry:  reg,
		Tasks:     tasks,
		Execs:     execs,
		Workspace: ws,
	}

	cfg := &config.Config{}
	s := NewServer(cfg, tasks, msgs, execs, ws, svc, reg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.StartWithListener(ln)
	t.Cleanup(func() { s.Shutdown(context.Background()) })

	return s, "http://" + ln.Addr().String()
}

func TestHealthEndpointReportsVersionAndWorkspaceCheck(t *testing.T) {
	_, base := startTestServer(t)
	time.Sleep(20 * time.Millisecond)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.NotEmpty(t, body.Version)
	assert.Equal(t, "healthy", body.Checks["workspace"].Status)
}

func TestCreateAndFetchTask(t *testing.T) {
	_, base := startTestServer(t)
	time.Sleep(20 * time.Millisecond)

	body, _ := json.Marshal(CreateTaskRequest{Description: map[string]any{"overall_description": "write a story"}})
	resp, err := http.Post(base+"/api/tasks/create", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	getResp, err := http.Get(base + "/api/tasks/" + id)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestGetTaskNotFoundMapsTo404(t *testing.T) {
	_, base := startTestServer(t)
	time.Sleep(20 * time.Millisecond)

	resp, err := http.Get(base + "/api/tasks/does_not_exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModifyTaskStackCreatesLayerAndTask(t *testing.T) {
	_, base := startTestServer(t)
	time.Sleep(20 * time.Millisecond)

	reqBody := ModifyTaskStackRequest{Ops: []OpRequest{
		{Kind: "CREATE_LAYERS", Layers: []CreateLayerRequest{{}}},
		{Kind: "CREATE_TASKS", Tasks: []CreateTaskRequest{{Description: map[string]any{"overall_description": "x"}}}},
	}}
	body, _ := json.Marshal(reqBody)
	resp, err := http.Post(base+"/api/task-stack/modify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var batch BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	assert.True(t, batch.Success)
	assert.Len(t, batch.CreatedTaskIDs, 1)
	assert.Len(t, batch.CreatedLayerIdxs, 1)
}
