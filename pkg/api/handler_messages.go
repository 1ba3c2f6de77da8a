package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/storyforge-ai/storyforge/pkg/models"
)

func (s *Server) createMessageHandler(c *echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	sender := models.MessageSender(req.SenderType)
	if sender == "" {
		sender = models.SenderUser
	}
	m := s.msgs.CreateUserMessage(req.Content, sender, req.TaskID)
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) getMessageHandler(c *echo.Context) error {
	m, err := s.msgs.Get(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) listMessagesHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.msgs.List())
}

func (s *Server) unreadMessagesHandler(c *echo.Context) error {
	var sender *models.MessageSender
	if v := c.QueryParam("sender_type"); v != "" {
		ms := models.MessageSender(v)
		sender = &ms
	}
	checkDirector, _ := strconv.ParseBool(c.QueryParam("check_director_read"))
	checkUser, _ := strconv.ParseBool(c.QueryParam("check_user_read"))
	return c.JSON(http.StatusOK, s.msgs.ListUnread(sender, checkDirector, checkUser))
}

func (s *Server) updateReadStatusHandler(c *echo.Context) error {
	var req UpdateReadStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	var director, user *models.ReadStatus
	if req.DirectorReadStatus != nil {
		v := models.ReadStatus(*req.DirectorReadStatus)
		director = &v
	}
	if req.UserReadStatus != nil {
		v := models.ReadStatus(*req.UserReadStatus)
		user = &v
	}
	m, err := s.msgs.UpdateReadStatus(c.Param("id"), director, user)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) checkMessageHandler(c *echo.Context) error {
	id := c.Param("id")
	m, err := s.msgs.Get(id)
	if err != nil {
		return mapServiceError(err)
	}
	isNew, err := s.msgs.IsNewTask(id)
	if err != nil {
		return mapServiceError(err)
	}
	var taskState string
	if m.TaskID != "" {
		if task, err := s.tasks.GetTask(m.TaskID); err == nil {
			taskState = string(task.Status)
		}
	}
	return c.JSON(http.StatusOK, &MessageCheckResponse{
		Message:   m,
		IsNewTask: isNew,
		TaskState: taskState,
	})
}
