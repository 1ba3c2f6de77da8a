package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

func (s *Server) getExecutionPointerHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.tasks.GetExecutionPointer())
}

func (s *Server) setExecutionPointerHandler(c *echo.Context) error {
	var req SetExecutionPointerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ok := s.tasks.SetExecutionPointer(req.LayerIndex, req.TaskIndex, req.InPreHook, req.InPostHook)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "layer or task index out of range")
	}
	return c.JSON(http.StatusOK, s.tasks.GetExecutionPointer())
}

func (s *Server) advanceExecutionPointerHandler(c *echo.Context) error {
	advanced := s.tasks.AdvanceExecutionPointer()
	return c.JSON(http.StatusOK, map[string]any{
		"advanced": advanced,
		"pointer":  s.tasks.GetExecutionPointer(),
	})
}
