package mcp

import "time"

// Protocol constants for the JSON-RPC-over-HTTP/SSE wire format.
const (
	ProtocolVersion = "2024-11-05"
	ClientName      = "external-mcp-client"
	ClientVersion   = "1.0.0"

	JSONRPCVersion   = "2.0"
	DefaultRequestID = 1

	BaseEndpoint = "/mcp/"

	SessionIDHeader = "mcp-session-id"
	AcceptSSE       = "application/json, text/event-stream"
	AcceptStream    = "text/event-stream"
)

// JSON-RPC methods.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodListTools   = "tools/list"
	MethodCallTool    = "tools/call"
)

// Timeouts and retry limits.
const (
	DefaultRequestTimeout     = 30 * time.Second
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultStartupTimeout     = 30 * time.Second
	LinkedInStartupTimeout    = 60 * time.Second
	LinkedInRequestTimeout    = 300 * time.Second

	DefaultMaxRetries  = 3
	LinkedInMaxRetries = 1

	MaxBackoffInterval = 60 * time.Second
)

// Default bind address for spawned servers.
const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8080
	LinkedInDefaultPort = 8081
)

// healthyStatusCodes are HTTP statuses that indicate a live server on a GET
// probe. Servers may legitimately refuse GET (405/406) or reject the missing
// body (400) while still being healthy.
var healthyStatusCodes = map[int]bool{200: true, 400: true, 405: true, 406: true}

// notificationStatusCodes are accepted responses to JSON-RPC notifications.
var notificationStatusCodes = map[int]bool{200: true, 202: true}
