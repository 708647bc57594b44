package api

import (
	"time"

	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
)

// proxyDefaultMaxTokens is the completion budget for passthrough proxy
// calls that do not set one.
const proxyDefaultMaxTokens = 500

// OpenAIProxyRequest is the body for the OpenAI passthrough endpoint. The
// caller brings their own API key; optional sampling fields are forwarded
// only when present.
type OpenAIProxyRequest struct {
	APIKey           string        `json:"api_key" binding:"required"`
	Model            string        `json:"model" binding:"required"`
	Messages         []llm.Message `json:"messages" binding:"required"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      *float64      `json:"temperature,omitempty"`
	TopP             *float64      `json:"top_p,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
}

// AnthropicProxyRequest is the body for the Anthropic passthrough
// endpoint.
type AnthropicProxyRequest struct {
	APIKey        string        `json:"api_key" binding:"required"`
	Model         string        `json:"model" binding:"required"`
	Messages      []llm.Message `json:"messages" binding:"required"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   *float64      `json:"temperature,omitempty"`
	TopP          *float64      `json:"top_p,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
}

// QueryRequest is a natural-language query for the semantic router.
type QueryRequest struct {
	Query         string         `json:"query" binding:"required"`
	UseReflection *bool          `json:"use_reflection,omitempty"`
	MaxAttempts   int            `json:"max_attempts,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
}

// reflectionEnabled reports the use_reflection flag, defaulting to true.
func (r *QueryRequest) reflectionEnabled() bool {
	return r.UseReflection == nil || *r.UseReflection
}

// attempts clamps max_attempts to 1..5, defaulting to 3.
func (r *QueryRequest) attempts() int {
	switch {
	case r.MaxAttempts <= 0:
		return 3
	case r.MaxAttempts > 5:
		return 5
	}
	return r.MaxAttempts
}

// QueryResponse is the router's answer for one query.
type QueryResponse struct {
	Query       string    `json:"query"`
	Status      string    `json:"status"`
	Result      any       `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PluginInfo is the list-view description of a registered plugin.
type PluginInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Loaded       bool     `json:"loaded"`
}

// PluginDetail is the single-plugin view with full metadata.
type PluginDetail struct {
	plugin.Metadata
	Loaded bool `json:"loaded"`
}

// PluginExecuteRequest is a direct plugin invocation, bypassing routing.
type PluginExecuteRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Context    map[string]any `json:"context,omitempty"`
}

// HealthResponse is the liveness report.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Environment   string    `json:"environment"`
	PluginsLoaded int       `json:"plugins_loaded"`
}
