// Package plugin defines the contract every capability plugin implements
// and the manager that owns plugin lifecycles. Plugins are compiled in and
// register constructors with the manager at startup; there is no runtime
// code loading.
package plugin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metadata describes a plugin's capabilities. Immutable after construction;
// the semantic router matches queries against Capabilities.
type Metadata struct {
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	Description    string            `json:"description"`
	Author         string            `json:"author"`
	Capabilities   []string          `json:"capabilities"`
	RequiredParams map[string]string `json:"required_params"`
	OptionalParams map[string]string `json:"optional_params"`
	Examples       []map[string]any  `json:"examples"`
}

// Request is the uniform invocation envelope. Context carries hints from
// the router; Parameters carry the action arguments.
type Request struct {
	RequestID  string         `json:"request_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Context    map[string]any `json:"context,omitempty"`
}

// NewRequest builds a request with a generated id and current timestamp.
func NewRequest(action string, parameters map[string]any) *Request {
	if parameters == nil {
		parameters = map[string]any{}
	}
	return &Request{
		RequestID:  uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Action:     action,
		Parameters: parameters,
		Context:    map[string]any{},
	}
}

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPartial = "partial"
)

// Response is the uniform result envelope returned by plugins.
type Response struct {
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Status    string         `json:"status"`
	Data      any            `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewSuccessResponse builds a success response bound to the request id.
func NewSuccessResponse(requestID string, data any) *Response {
	return &Response{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Status:    StatusSuccess,
		Data:      data,
		Metadata:  map[string]any{},
	}
}

// NewErrorResponse builds an error response bound to the request id.
func NewErrorResponse(requestID, errMsg string) *Response {
	return &Response{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Status:    StatusError,
		Error:     errMsg,
		Metadata:  map[string]any{},
	}
}

// Plugin is the contract all capability plugins implement. Implementations
// own their external resources (child processes, HTTP sessions) and release
// them in Shutdown.
type Plugin interface {
	// Initialize prepares the plugin for use. Config keys are plugin-specific.
	Initialize(ctx context.Context, config map[string]any) error

	// Execute runs one action. Implementations return an error only for
	// infrastructure failures; action-level failures go into an
	// error-status Response.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// ValidateRequest reports whether the request satisfies the plugin's
	// parameter requirements. The manager refuses to execute when false.
	ValidateRequest(req *Request) bool

	// Shutdown releases plugin resources. Idempotent.
	Shutdown(ctx context.Context) error

	// Metadata returns the plugin's immutable description.
	Metadata() Metadata
}

// HasRequiredParams is the default validation: every declared required
// parameter must be present. Plugins embed this in ValidateRequest and add
// their own checks on top.
func HasRequiredParams(meta Metadata, req *Request) bool {
	for param := range meta.RequiredParams {
		if _, ok := req.Parameters[param]; !ok {
			return false
		}
	}
	return true
}
