// Package api provides the HTTP surface for storyforge: the Director and
// any external caller drive the task stack, messages, and assistant
// execution entirely through this package (spec.md §6).
package api

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/storyforge-ai/storyforge/pkg/assistant"
	"github.com/storyforge-ai/storyforge/pkg/config"
	"github.com/storyforge-ai/storyforge/pkg/execstore"
	"github.com/storyforge-ai/storyforge/pkg/messages"
	"github.com/storyforge-ai/storyforge/pkg/registry"
	"github.com/storyforge-ai/storyforge/pkg/taskstack"
	"github.com/storyforge-ai/storyforge/pkg/version"
	"github.com/storyforge-ai/storyforge/pkg/workspace"
)

// Server is the HTTP API server, built on Echo v5 per the teacher's
// pkg/api/server.go.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg       *config.Config
	tasks     *taskstack.Store
	msgs      *messages.Store
	execs     *execstore.Store
	ws        *workspace.Workspace
	assistant *assistant.Service
	registry  *registry.Registry
}

// NewServer wires every store/service into route handlers and returns a
// ready-to-serve Server.
func NewServer(cfg *config.Config, tasks *taskstack.Store, msgs *messages.Store, execs *execstore.Store, ws *workspace.Workspace, asst *assistant.Service, reg *registry.Registry) *Server {
	e := echo.New()

	s := &Server{
		echo:      e,
		cfg:       cfg,
		tasks:     tasks,
		msgs:      msgs,
		execs:     execs,
		ws:        ws,
		assistant: asst,
		registry:  reg,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers every route in spec.md §6's surface.
func (s *Server) setupRoutes() {
	s.echo.Use(securityHeaders())
	s.echo.Use(requestLogger())
	s.echo.Use(middleware.BodyLimit(8 * 1024 * 1024))

	s.echo.GET("/health", s.healthHandler)

	msg := s.echo.Group("/api/messages")
	msg.POST("/create", s.createMessageHandler)
	msg.GET("/list", s.listMessagesHandler)
	msg.GET("/unread", s.unreadMessagesHandler)
	msg.GET("/:id", s.getMessageHandler)
	msg.GET("/:id/check", s.checkMessageHandler)
	msg.PUT("/:id/read-status", s.updateReadStatusHandler)

	tasks := s.echo.Group("/api/tasks")
	tasks.POST("/create", s.createTaskHandler)
	tasks.GET("/list", s.listTasksHandler)
	tasks.GET("/:id", s.getTaskHandler)
	tasks.PUT("/:id", s.updateTaskHandler)
	tasks.PUT("/:id/status", s.updateTaskStatusHandler)
	tasks.DELETE("/:id", s.deleteTaskHandler)
	tasks.POST("/:id/messages", s.createTaskMessageHandler)

	layers := s.echo.Group("/api/layers")
	layers.POST("/create", s.createLayerHandler)
	layers.GET("/list", s.listLayersHandler)
	layers.GET("/:i", s.getLayerHandler)
	layers.PUT("/:i/hooks", s.updateLayerHooksHandler)
	layers.POST("/:i/tasks", s.addTaskToLayerHandler)
	layers.DELETE("/:i/tasks/:task_id", s.removeTaskFromLayerHandler)
	layers.POST("/:i/tasks/replace", s.replaceTaskInLayerHandler)

	pointer := s.echo.Group("/api/execution-pointer")
	pointer.GET("/get", s.getExecutionPointerHandler)
	pointer.PUT("/set", s.setExecutionPointerHandler)
	pointer.POST("/advance", s.advanceExecutionPointerHandler)

	stack := s.echo.Group("/api/task-stack")
	stack.GET("", s.getTaskStackHandler)
	stack.GET("/next", s.nextTaskHandler)
	stack.POST("/insert-layer", s.insertLayerHandler)
	stack.POST("/modify", s.modifyTaskStackHandler)

	asst := s.echo.Group("/api/assistant")
	asst.GET("", s.getAssistantHandler)
	asst.GET("/sub-agents", s.listSubAgentsHandler)
	asst.GET("/sub-agents/:id", s.getSubAgentHandler)
	asst.GET("/agents/:id/inputs", s.getAgentInputsHandler)
	asst.POST("/execute", s.executeAgentHandler)
	asst.GET("/executions/:id", s.getExecutionHandler)
	asst.GET("/executions/task/:task_id", s.listExecutionsForTaskHandler)
	asst.GET("/workspace", s.workspaceSummaryHandler)

	ws := s.echo.Group("/workspace")
	ws.GET("/summary", s.workspaceSummaryHandler)
	ws.GET("/files", s.listFilesHandler)
	ws.GET("/files/:id", s.getFileHandler)
	ws.GET("/files/search", s.searchFilesHandler)
	ws.GET("/memory", s.readMemoryHandler)
	ws.POST("/memory", s.writeMemoryHandler)
	ws.GET("/logs", s.listLogsHandler)
	ws.GET("/search", s.searchWorkspaceHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used
// by tests to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health. There is no database in this system
// (see DESIGN.md); in its place the workspace check verifies the runtime
// directory is writable.
func (s *Server) healthHandler(c *echo.Context) error {
	checks := map[string]HealthCheck{}
	status := "healthy"

	if s.ws != nil {
		if err := checkWritable(s.ws.RuntimePath); err != nil {
			checks["workspace"] = HealthCheck{Status: "unhealthy", Message: err.Error()}
			status = "degraded"
		} else {
			checks["workspace"] = HealthCheck{Status: "healthy"}
		}
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  status,
		Service: "storyforge",
		Version: version.Full(),
		Checks:  checks,
	})
}

func checkWritable(dir string) error {
	probe := filepath.Join(dir, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
