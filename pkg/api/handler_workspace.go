package api

import (
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/storyforge-ai/storyforge/pkg/models"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

func (s *Server) workspaceSummaryHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.ws.GetSummary())
}

func (s *Server) listFilesHandler(c *echo.Context) error {
	filter := workspace.FileFilter{
		FileType:  models.FileType(c.QueryParam("file_type")),
		CreatedBy: c.QueryParam("created_by"),
	}
	if v := c.QueryParam("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		filter.Limit = v
	}
	return c.JSON(http.StatusOK, s.ws.Files.List(filter))
}

func (s *Server) getFileHandler(c *echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file id")
	}
	meta, err := s.ws.Files.Get(id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (s *Server) searchFilesHandler(c *echo.Context) error {
	limit := 0
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = v
	}
	filter := workspace.FileFilter{
		FileType: models.FileType(c.QueryParam("file_type")),
		Limit:    limit,
	}
	return c.JSON(http.StatusOK, s.ws.Files.SearchByQuery(c.QueryParam("query"), filter))
}

func (s *Server) readMemoryHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"content": s.ws.Memory.Read(),
		"info":    s.ws.Memory.GetMemoryInfo(),
	})
}

func (s *Server) writeMemoryHandler(c *echo.Context) error {
	var req WriteMemoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := s.ws.WriteMemory(req.Content, req.Append, req.AgentID, req.TaskID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) listLogsHandler(c *echo.Context) error {
	filter := workspace.LogFilter{
		OperationType: models.LogOperation(c.QueryParam("operation_type")),
		ResourceType:  models.LogResourceType(c.QueryParam("resource_type")),
		AgentID:       c.QueryParam("agent_id"),
		TaskID:        c.QueryParam("task_id"),
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		filter.Limit = v
	}
	return c.JSON(http.StatusOK, s.ws.Logs.GetLogs(filter))
}

func (s *Server) searchWorkspaceHandler(c *echo.Context) error {
	types := c.QueryParam("types")
	searchFiles := types == "" || strings.Contains(types, "files")
	searchMemory := types == "" || strings.Contains(types, "memory")
	searchLogs := types == "" || strings.Contains(types, "logs")

	limit := 0
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = v
	}

	res := s.ws.SearchAll(c.QueryParam("query"), searchFiles, searchMemory, searchLogs, limit)
	return c.JSON(http.StatusOK, &SearchResponse{
		Files:  res.Files,
		Memory: res.Memory,
		Logs:   res.Logs,
	})
}
