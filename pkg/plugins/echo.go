// Package plugins holds the built-in capability plugins. Each plugin
// implements the plugin.Plugin contract and registers with the manager in
// cmd/sparrow.
package plugins

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sparhub/sparrow/pkg/plugin"
)

// EchoPlugin echoes a message back with optional transforms. Exists for
// testing the plugin pipeline end to end.
type EchoPlugin struct {
	logger *slog.Logger
	meta   plugin.Metadata
}

// NewEcho constructs the echo plugin.
func NewEcho() plugin.Plugin {
	return &EchoPlugin{
		logger: slog.Default().With("plugin", "echo"),
		meta: plugin.Metadata{
			Name:         "echo",
			Version:      "1.0.0",
			Description:  "Echoes back the input with optional transformations",
			Author:       "MCP Team",
			Capabilities: []string{"echo", "repeat", "transform", "test"},
			RequiredParams: map[string]string{
				"message": "The message to echo",
			},
			OptionalParams: map[string]string{
				"uppercase": "Convert to uppercase (boolean)",
				"repeat":    "Number of times to repeat (integer)",
				"prefix":    "Prefix to add to the message",
				"suffix":    "Suffix to add to the message",
			},
			Examples: []map[string]any{
				{
					"query":      "Echo 'Hello World'",
					"parameters": map[string]any{"message": "Hello World"},
				},
				{
					"query":      "Repeat 'Hi' 3 times in uppercase",
					"parameters": map[string]any{"message": "Hi", "repeat": 3, "uppercase": true},
				},
			},
		},
	}
}

func (p *EchoPlugin) Initialize(ctx context.Context, config map[string]any) error {
	p.logger.Info("initializing echo plugin")
	return nil
}

// Execute applies transforms in a fixed order: uppercase, prefix, suffix,
// then repeat (joined with spaces).
func (p *EchoPlugin) Execute(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	message := stringParam(req.Parameters, "message")
	uppercase := boolParam(req.Parameters, "uppercase")
	repeat := intParam(req.Parameters, "repeat", 1)
	prefix := stringParam(req.Parameters, "prefix")
	suffix := stringParam(req.Parameters, "suffix")

	result := message
	if uppercase {
		result = strings.ToUpper(result)
	}
	if prefix != "" {
		result = prefix + result
	}
	if suffix != "" {
		result = result + suffix
	}
	if repeat > 1 {
		parts := make([]string, repeat)
		for i := range parts {
			parts[i] = result
		}
		result = strings.Join(parts, " ")
	}

	p.logger.Info("echo executed", "original", message, "result", result)

	resp := plugin.NewSuccessResponse(req.RequestID, map[string]any{
		"original": message,
		"echoed":   result,
		"transformations_applied": map[string]any{
			"uppercase": uppercase,
			"repeat":    repeat,
			"prefix":    prefix != "",
			"suffix":    suffix != "",
		},
	})
	resp.Metadata["plugin"] = "echo"
	resp.Metadata["version"] = p.meta.Version
	return resp, nil
}

func (p *EchoPlugin) ValidateRequest(req *plugin.Request) bool {
	return plugin.HasRequiredParams(p.meta, req)
}

func (p *EchoPlugin) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down echo plugin")
	return nil
}

func (p *EchoPlugin) Metadata() plugin.Metadata { return p.meta }

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func boolParam(params map[string]any, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
