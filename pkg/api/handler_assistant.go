package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

func (s *Server) getAssistantHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.assistant.Assistant)
}

func (s *Server) listSubAgentsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.ListAgents())
}

func (s *Server) getSubAgentHandler(c *echo.Context) error {
	name := c.Param("id")
	for _, entry := range s.registry.ListAgents() {
		if entry.Name == name {
			return c.JSON(http.StatusOK, entry)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "sub-agent not found")
}

func (s *Server) getAgentInputsHandler(c *echo.Context) error {
	name := c.Param("id")
	d, ok := s.registry.GetDescriptor(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	return c.JSON(http.StatusOK, &AgentInputsResponse{
		AgentName:    d.AgentName,
		AssetKey:     d.AssetKey,
		UpstreamKeys: d.UpstreamKeys,
		CatalogEntry: d.CatalogEntry,
	})
}

func (s *Server) executeAgentHandler(c *echo.Context) error {
	var req ExecuteAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AgentID == "" || req.TaskID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "agent_id and task_id are required")
	}
	summary, err := s.assistant.ExecuteForTask(c.Request().Context(), req.AgentID, req.TaskID, req.AdditionalInputs)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) getExecutionHandler(c *echo.Context) error {
	e, err := s.execs.Get(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) listExecutionsForTaskHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.execs.ListByTask(c.Param("task_id")))
}
