// Sparrow server — LLM proxy, applicant evaluation, and semantic plugin
// routing behind one authenticated HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sparhub/sparrow/pkg/api"
	"github.com/sparhub/sparrow/pkg/auth"
	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/evaluation"
	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
	"github.com/sparhub/sparrow/pkg/plugins"
	"github.com/sparhub/sparrow/pkg/plugins/resume"
	"github.com/sparhub/sparrow/pkg/routing"
	"github.com/sparhub/sparrow/pkg/version"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to the environment file")
	flag.Parse()

	// Load .env before reading settings; missing file is fine.
	if err := godotenv.Load(*envFile); err != nil {
		slog.Warn("Could not load env file, continuing with existing environment",
			"path", *envFile, "error", err)
	}

	settings := config.Load()
	setupLogging(settings)

	slog.Info("Starting sparrow",
		"version", version.Full(),
		"host", settings.APIHost,
		"port", settings.APIPort,
		"provider", settings.LLMProvider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. LLM provider factory
	factory := llm.NewFactory()

	// 2. Plugin registry
	manager := plugin.NewManager(slog.Default())
	manager.Register(plugins.NewEcho)
	manager.Register(plugins.NewCalculator)
	manager.Register(plugins.NewLinkedIn)
	manager.Register(func() plugin.Plugin { return resume.New(settings, factory) })
	slog.Info("Plugins registered", "plugins", manager.AvailablePlugins())
	defer manager.Shutdown(context.Background())

	if settings.PluginAutoReload {
		watcher, err := plugin.NewWatcher(manager, settings.PluginDirectory, slog.Default())
		if err != nil {
			slog.Warn("Plugin auto-reload disabled", "dir", settings.PluginDirectory, "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	// 3. Semantic router and reflection framework, using the server-side
	// provider credentials. A missing key is not fatal: routed queries
	// fail with an auth error instead of blocking startup.
	provider, err := factory.Get(settings.LLMProvider, settings.TimeoutFor(settings.LLMProvider))
	if err != nil {
		slog.Error("Invalid LLM provider", "provider", settings.LLMProvider, "error", err)
		os.Exit(1)
	}
	apiKey, err := settings.GetAPIKey(settings.LLMProvider)
	if err != nil {
		slog.Warn("No API key configured for routing", "provider", settings.LLMProvider, "error", err)
	}
	model, err := settings.GetModel(settings.LLMProvider)
	if err != nil {
		slog.Error("No model configured", "provider", settings.LLMProvider, "error", err)
		os.Exit(1)
	}

	router := routing.NewRouter(manager, provider, apiKey, model)
	framework := routing.NewFramework(router, provider, apiKey, model, settings.AgenticMaxRetries)

	// 4. Remaining services
	authService := auth.NewService(settings, auth.NewStore())
	evaluator := evaluation.NewService(settings, factory, manager)

	// 5. HTTP server
	if !strings.EqualFold(settings.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(settings, authService, factory, manager, router, framework, evaluator)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", settings.APIHost, settings.APIPort),
		Handler: server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// setupLogging installs the default slog handler per LOG_FORMAT and
// LOG_LEVEL.
func setupLogging(settings *config.Settings) {
	var level slog.Level
	switch strings.ToUpper(settings.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(settings.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
