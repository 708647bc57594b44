package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/sparrow/pkg/plugin"
)

// handleHealth reports liveness. Unauthenticated.
func (s *Server) handleHealth(c *gin.Context) {
	environment := "local"
	if s.settings.DockerEnv {
		environment = "docker"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		Environment:   environment,
		PluginsLoaded: len(s.manager.LoadedPlugins()),
	})
}

// handleListPlugins lists every registered plugin, sorted by name.
func (s *Server) handleListPlugins(c *gin.Context) {
	loaded := make(map[string]bool)
	for _, name := range s.manager.LoadedPlugins() {
		loaded[name] = true
	}

	all := s.manager.AllMetadata()
	infos := make([]PluginInfo, 0, len(all))
	for name, meta := range all {
		infos = append(infos, PluginInfo{
			Name:         name,
			Version:      meta.Version,
			Description:  meta.Description,
			Capabilities: meta.Capabilities,
			Loaded:       loaded[name],
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	c.JSON(http.StatusOK, gin.H{"plugins": infos, "count": len(infos)})
}

// handlePluginInfo returns full metadata for one plugin.
func (s *Server) handlePluginInfo(c *gin.Context) {
	name := c.Param("name")
	meta, ok := s.manager.PluginMetadata(name)
	if !ok {
		s.abortError(c, &plugin.NotFoundError{Plugin: name})
		return
	}

	loaded := false
	for _, loadedName := range s.manager.LoadedPlugins() {
		if loadedName == name {
			loaded = true
			break
		}
	}
	c.JSON(http.StatusOK, PluginDetail{Metadata: meta, Loaded: loaded})
}

// handleExecutePlugin invokes one plugin directly, bypassing the router.
func (s *Server) handleExecutePlugin(c *gin.Context) {
	name := c.Param("name")

	var req PluginExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}
	action := req.Action
	if action == "" {
		action = "execute"
	}

	invocation := plugin.NewRequest(action, req.Parameters)
	if len(req.Context) > 0 {
		invocation.Context = req.Context
	}

	resp, err := s.manager.Execute(c.Request.Context(), name, invocation)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleReloadPlugins tears down and re-initializes every loaded plugin.
// Admin only.
func (s *Server) handleReloadPlugins(c *gin.Context) {
	if err := s.manager.ReloadAll(c.Request.Context()); err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "reloaded",
		"plugins":   s.manager.LoadedPlugins(),
		"timestamp": time.Now().UTC(),
	})
}

// handleUnloadPlugin shuts one plugin down. Admin only.
func (s *Server) handleUnloadPlugin(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.manager.PluginMetadata(name); !ok {
		s.abortError(c, &plugin.NotFoundError{Plugin: name})
		return
	}

	if err := s.manager.Unload(c.Request.Context(), name); err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unloaded", "plugin": name})
}
