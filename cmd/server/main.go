// storyforge-server serves the HTTP API: task stack, messages, and
// assistant execution, over which cmd/director and any external caller
// drive the system (spec.md §6).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storyforge-ai/storyforge/pkg/api"
	"github.com/storyforge-ai/storyforge/pkg/bootstrap"
	"github.com/storyforge-ai/storyforge/pkg/cleanup"
)

const shutdownGrace = 10 * time.Second

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	os.Exit(run())
}

func run() int {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("no .env file loaded", "path", envPath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}

	server := api.NewServer(app.Config, app.Tasks, app.Messages, app.Execs, app.Workspace, app.Assistant, app.Registry)

	cleanupSvc := cleanup.NewService(app.Config.Retention, app.Execs)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	addr := fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("failed to bind", "addr", addr, "error", err)
		return 1
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		serveErr <- server.StartWithListener(ln)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exited", "error", err)
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}
