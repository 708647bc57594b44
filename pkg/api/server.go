// Package api exposes the HTTP surface: LLM passthrough proxies,
// applicant evaluation, semantic query routing, plugin management, and
// the OAuth2 password flow that guards it all.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparhub/sparrow/pkg/auth"
	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/evaluation"
	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
	"github.com/sparhub/sparrow/pkg/routing"
)

// Server wires the HTTP handlers to the domain services. Construct it
// once at startup and mount Routes on an http.Server.
type Server struct {
	settings  *config.Settings
	auth      *auth.Service
	factory   *llm.Factory
	manager   *plugin.Manager
	router    *routing.Router
	framework *routing.Framework
	evaluator *evaluation.Service
	logger    *slog.Logger
}

// NewServer builds the API server from its dependencies.
func NewServer(
	settings *config.Settings,
	authService *auth.Service,
	factory *llm.Factory,
	manager *plugin.Manager,
	router *routing.Router,
	framework *routing.Framework,
	evaluator *evaluation.Service,
) *Server {
	return &Server{
		settings:  settings,
		auth:      authService,
		factory:   factory,
		manager:   manager,
		router:    router,
		framework: framework,
		evaluator: evaluator,
		logger:    slog.Default().With("component", "api"),
	}
}

// Routes builds the gin engine with all middleware and endpoints mounted.
func (s *Server) Routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger(), s.corsMiddleware(), s.metricsMiddleware())

	engine.GET("/health", s.handleHealth)
	if s.settings.EnableMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := engine.Group(s.settings.APIPrefix)
	api.POST("/auth/token", s.handleToken)

	authed := api.Group("", s.authMiddleware())
	authed.POST("/auth/users", s.requireScope(auth.ScopeAdmin), s.handleCreateUser)
	authed.GET("/auth/me", s.handleCurrentUser)

	authed.POST("/llm/openai", s.handleOpenAIProxy)
	authed.POST("/llm/anthropic", s.handleAnthropicProxy)
	authed.POST("/llm/evaluate", s.handleEvaluate)

	authed.POST("/query", s.handleQuery)
	authed.POST("/query/analyze", s.handleAnalyzeQuery)

	authed.GET("/plugins", s.handleListPlugins)
	authed.GET("/plugins/:name", s.handlePluginInfo)
	authed.POST("/plugins/:name/execute", s.handleExecutePlugin)

	admin := authed.Group("/admin", s.requireScope(auth.ScopeAdmin))
	admin.POST("/plugins/reload", s.handleReloadPlugins)
	admin.DELETE("/plugins/:name", s.handleUnloadPlugin)

	return engine
}
