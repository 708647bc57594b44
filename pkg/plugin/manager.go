package plugin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sparhub/sparrow/pkg/metrics"
)

// Constructor builds a fresh, uninitialized plugin instance.
type Constructor func() Plugin

// Manager owns plugin lifecycles: a registry of available constructors and
// the set of loaded (initialized) instances. Loading is lazy; Execute loads
// a registered plugin on first use.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	available map[string]Constructor
	loaded    map[string]Plugin
	configs   map[string]map[string]any
}

// NewManager creates an empty manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:    logger.With("component", "plugin_manager"),
		available: make(map[string]Constructor),
		loaded:    make(map[string]Plugin),
		configs:   make(map[string]map[string]any),
	}
}

// Register adds a plugin constructor under the name its metadata reports.
// A temporary instance is built to read the metadata; it is discarded
// without initialization.
func (m *Manager) Register(ctor Constructor) string {
	meta := ctor().Metadata()

	m.mu.Lock()
	m.available[meta.Name] = ctor
	m.mu.Unlock()

	m.logger.Debug("registered plugin", "name", meta.Name, "version", meta.Version)
	return meta.Name
}

// Load initializes the named plugin with config and caches the instance.
// Returns the cached instance when already loaded.
func (m *Manager) Load(ctx context.Context, name string, config map[string]any) (Plugin, error) {
	m.mu.RLock()
	if p, ok := m.loaded[name]; ok {
		m.mu.RUnlock()
		return p, nil
	}
	ctor, ok := m.available[name]
	m.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Plugin: name}
	}

	p := ctor()
	if err := p.Initialize(ctx, config); err != nil {
		return nil, &InitializationError{Plugin: name, Reason: err.Error(), Err: err}
	}

	m.mu.Lock()
	if existing, ok := m.loaded[name]; ok {
		// Lost a load race; keep the first instance.
		m.mu.Unlock()
		_ = p.Shutdown(ctx)
		return existing, nil
	}
	m.loaded[name] = p
	m.configs[name] = config
	m.mu.Unlock()

	m.logger.Info("plugin ready", "name", name)
	return p, nil
}

// Execute validates and runs one request against the named plugin, loading
// it first if registered but not yet loaded.
func (m *Manager) Execute(ctx context.Context, name string, req *Request) (*Response, error) {
	m.mu.RLock()
	p, ok := m.loaded[name]
	m.mu.RUnlock()

	if !ok {
		var err error
		p, err = m.Load(ctx, name, nil)
		if err != nil {
			return nil, err
		}
	}

	if !p.ValidateRequest(req) {
		return nil, &ValidationError{
			Plugin: name,
			Details: map[string]any{
				"reason": "Request validation failed",
				"action": req.Action,
			},
		}
	}

	start := time.Now()
	resp, err := p.Execute(ctx, req)
	metrics.PluginExecutionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PluginExecutionsTotal.WithLabelValues(name, StatusError).Inc()
		m.logger.Error("plugin execution failed", "plugin", name, "action", req.Action, "error", err)
		return nil, &ExecutionError{Plugin: name, Action: req.Action, Reason: err.Error(), Err: err}
	}
	metrics.PluginExecutionsTotal.WithLabelValues(name, resp.Status).Inc()
	return resp, nil
}

// Unload shuts the named plugin down and drops it from the loaded set.
// No-op when not loaded.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	p, ok := m.loaded[name]
	delete(m.loaded, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := p.Shutdown(ctx); err != nil {
		m.logger.Error("error shutting down plugin", "name", name, "error", err)
		return err
	}
	m.logger.Info("plugin unloaded", "name", name)
	return nil
}

// ReloadAll shuts down every loaded plugin and re-initializes each with
// its last config. Plugin state is lost across a reload.
func (m *Manager) ReloadAll(ctx context.Context) error {
	m.logger.Info("reloading all plugins")

	m.mu.RLock()
	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	m.mu.RUnlock()

	var firstErr error
	for _, name := range names {
		m.mu.RLock()
		config := m.configs[name]
		m.mu.RUnlock()

		if err := m.Unload(ctx, name); err != nil && firstErr == nil {
			firstErr = err
		}
		if _, err := m.Load(ctx, name, config); err != nil {
			m.logger.Error("failed to reload plugin", "name", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// AvailablePlugins lists registered plugin names.
func (m *Manager) AvailablePlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.available))
	for name := range m.available {
		names = append(names, name)
	}
	return names
}

// LoadedPlugins lists currently loaded plugin names.
func (m *Manager) LoadedPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	return names
}

// PluginMetadata returns metadata for one plugin, loaded or not.
func (m *Manager) PluginMetadata(name string) (Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.loaded[name]; ok {
		return p.Metadata(), true
	}
	if ctor, ok := m.available[name]; ok {
		return ctor().Metadata(), true
	}
	return Metadata{}, false
}

// AllMetadata returns metadata for every registered plugin.
func (m *Manager) AllMetadata() map[string]Metadata {
	m.mu.RLock()
	names := make([]string, 0, len(m.available))
	for name := range m.available {
		names = append(names, name)
	}
	m.mu.RUnlock()

	all := make(map[string]Metadata, len(names))
	for _, name := range names {
		if meta, ok := m.PluginMetadata(name); ok {
			all[name] = meta
		}
	}
	return all
}

// Shutdown unloads every loaded plugin. Safe to call multiple times.
func (m *Manager) Shutdown(ctx context.Context) {
	m.logger.Info("shutting down all plugins")
	m.mu.RLock()
	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	m.mu.RUnlock()

	for _, name := range names {
		_ = m.Unload(ctx, name)
	}
}
