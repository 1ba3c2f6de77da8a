// storyforge-director runs the Director poll/plan/delegate/reflect loop
// as its own process, separate from the HTTP API (spec.md §6, §4.8).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/storyforge-ai/storyforge/pkg/bootstrap"
	"github.com/storyforge-ai/storyforge/pkg/cleanup"
	"github.com/storyforge-ai/storyforge/pkg/director"
)

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

	planner := &director.StubPlanner{DefaultAgent: "StoryAgent"}
	d := director.New(app.Tasks, app.Messages, app.Assistant, planner, app.Config.Defaults.PollingInterval)
	d.Start(ctx)

	cleanupSvc := cleanup.NewService(app.Config.Retention, app.Execs)
	cleanupSvc.Start(ctx)

	<-ctx.Done()
	slog.Info("shutdown signal received")

	d.Stop()
	cleanupSvc.Stop()
	return 0
}
