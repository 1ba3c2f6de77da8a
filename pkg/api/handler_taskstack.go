package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/storyforge-ai/storyforge/pkg/taskstack"
)

// getTaskStackHandler handles GET /api/task-stack: the full snapshot of
// tasks, layers, and the execution pointer.
func (s *Server) getTaskStackHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"tasks":   s.tasks.ListTasks(),
		"layers":  s.tasks.GetLayers(),
		"pointer": s.tasks.GetExecutionPointer(),
	})
}

func (s *Server) nextTaskHandler(c *echo.Context) error {
	next := s.tasks.GetNextTask()
	if next == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no next task")
	}
	return c.JSON(http.StatusOK, next)
}

func (s *Server) insertLayerHandler(c *echo.Context) error {
	var req InsertLayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	l, err := s.tasks.InsertLayerWithTasks(req.InsertIndex, req.TaskIDs, req.PreHook, req.PostHook)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) modifyTaskStackHandler(c *echo.Context) error {
	var req ModifyTaskStackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ops := make([]taskstack.Op, 0, len(req.Ops))
	for _, o := range req.Ops {
		op := taskstack.Op{Kind: taskstack.OpKind(o.Kind)}
		for _, t := range o.Tasks {
			op.Tasks = append(op.Tasks, taskstack.NewTaskSpec{Description: t.Description})
		}
		for _, l := range o.Layers {
			op.Layers = append(op.Layers, taskstack.NewLayerSpec{LayerIndex: l.LayerIndex, PreHook: l.PreHook, PostHook: l.PostHook})
		}
		for _, a := range o.Additions {
			op.Additions = append(op.Additions, taskstack.LayerTaskAddition{LayerIndex: a.LayerIndex, TaskID: a.TaskID, InsertIndex: a.InsertIndex})
		}
		for _, r := range o.Removals {
			op.Removals = append(op.Removals, taskstack.LayerTaskRemoval{LayerIndex: r.LayerIndex, TaskID: r.TaskID})
		}
		for _, r := range o.Replacements {
			op.Replacements = append(op.Replacements, taskstack.LayerTaskReplacement{LayerIndex: r.LayerIndex, OldID: r.OldID, NewID: r.NewID})
		}
		for _, h := range o.HookUpdates {
			op.HookUpdates = append(op.HookUpdates, taskstack.LayerHookUpdate{LayerIndex: h.LayerIndex, PreHook: h.PreHook, PostHook: h.PostHook})
		}
		ops = append(ops, op)
	}

	result := s.tasks.ModifyTaskStack(ops)
	resp := &BatchResponse{
		Success:          result.Success,
		CreatedTaskIDs:   result.CreatedTaskIDs,
		CreatedLayerIdxs: result.CreatedLayerIdxs,
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
