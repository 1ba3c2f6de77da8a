package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"
)

func layerIndexParam(c *echo.Context) (int, error) {
	return strconv.Atoi(c.Param("i"))
}

func (s *Server) createLayerHandler(c *echo.Context) error {
	var req CreateLayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	l, err := s.tasks.CreateLayer(req.LayerIndex, req.PreHook, req.PostHook)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) listLayersHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.tasks.GetLayers())
}

func (s *Server) getLayerHandler(c *echo.Context) error {
	idx, err := layerIndexParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid layer index")
	}
	l, err := s.tasks.GetLayer(idx)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) updateLayerHooksHandler(c *echo.Context) error {
	idx, err := layerIndexParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid layer index")
	}
	var req UpdateLayerHooksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ok, err := s.tasks.UpdateLayerHooks(idx, req.PreHook, req.PostHook)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &DeleteResponse{Deleted: ok})
}

func (s *Server) addTaskToLayerHandler(c *echo.Context) error {
	idx, err := layerIndexParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid layer index")
	}
	var req AddTaskToLayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ok, err := s.tasks.AddTaskToLayer(idx, req.TaskID, req.InsertIndex)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &DeleteResponse{Deleted: ok})
}

func (s *Server) removeTaskFromLayerHandler(c *echo.Context) error {
	idx, err := layerIndexParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid layer index")
	}
	ok, err := s.tasks.RemoveTaskFromLayer(idx, c.Param("task_id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &DeleteResponse{Deleted: ok})
}

func (s *Server) replaceTaskInLayerHandler(c *echo.Context) error {
	idx, err := layerIndexParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid layer index")
	}
	var req ReplaceTaskInLayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ok, err := s.tasks.ReplaceTaskInLayer(idx, req.OldID, req.NewID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &DeleteResponse{Deleted: ok})
}
