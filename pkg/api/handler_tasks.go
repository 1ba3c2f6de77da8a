package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/storyforge-ai/storyforge/pkg/models"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
)

func (s *Server) createTaskHandler(c *echo.Context) error {
	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t := s.tasks.CreateTask(req.Description)
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) getTaskHandler(c *echo.Context) error {
	t, err := s.tasks.GetTask(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) listTasksHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.tasks.ListTasks())
}

func (s *Server) updateTaskHandler(c *echo.Context) error {
	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := s.tasks.UpdateTask(c.Param("id"), taskstack.TaskUpdate{
		Description: req.Description,
		Progress:    req.Progress,
		Results:     req.Results,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) updateTaskStatusHandler(c *echo.Context) error {
	var req UpdateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	status := models.TaskStatus(req.Status)
	t, err := s.tasks.UpdateTask(c.Param("id"), taskstack.TaskUpdate{Status: &status})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTaskHandler(c *echo.Context) error {
	ok, err := s.tasks.DeleteTask(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &DeleteResponse{Deleted: ok})
}

func (s *Server) createTaskMessageHandler(c *echo.Context) error {
	taskID := c.Param("id")
	if _, err := s.tasks.GetTask(taskID); err != nil {
		return mapServiceError(err)
	}
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sender := models.MessageSender(req.SenderType)
	if sender == "" {
		sender = models.SenderUser
	}
	m := s.msgs.CreateUserMessage(req.Content, sender, taskID)
	return c.JSON(http.StatusCreated, m)
}
