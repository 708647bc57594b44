// Package metrics defines the prometheus instruments exported at
// /metrics. Instruments register on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparrow_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparrow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"method", "path"},
	)

	// Plugin executions
	PluginExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparrow_plugin_executions_total",
			Help: "Total number of plugin executions",
		},
		[]string{"plugin", "status"},
	)

	PluginExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparrow_plugin_execution_duration_seconds",
			Help:    "Plugin execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~3min
		},
		[]string{"plugin"},
	)

	// LLM provider calls
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparrow_llm_requests_total",
			Help: "Total number of LLM provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparrow_llm_request_duration_seconds",
			Help:    "LLM provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"provider", "model"},
	)

	// Evaluations
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparrow_evaluations_total",
			Help: "Total number of applicant evaluations",
		},
		[]string{"provider", "mode", "status"}, // mode: single_axis/multi_axis
	)

	// MCP transport
	MCPToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparrow_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	MCPRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sparrow_mcp_retries_total",
			Help: "Total number of MCP request retries",
		},
	)
)
