package mcp

import (
	"errors"
	"fmt"
)

// ErrEmptySSEInput is returned when an SSE frame is requested from empty text.
var ErrEmptySSEInput = errors.New("empty SSE input")

// ConnectionError indicates the MCP server could not be reached.
type ConnectionError struct {
	ServerURL string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to MCP server %s: %v", e.ServerURL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError indicates the server responded but the JSON-RPC exchange
// failed (error response or malformed frame).
type ProtocolError struct {
	Method  string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP protocol error on %s: %s", e.Method, e.Message)
}

// TimeoutError indicates an MCP request exceeded its deadline.
type TimeoutError struct {
	Method string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("MCP request %s timed out: %v", e.Method, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// SessionError indicates session state was lost or conflicted.
type SessionError struct {
	Message string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("MCP session error: %s", e.Message)
}

// ProcessError indicates a failure spawning or supervising an external
// MCP server process.
type ProcessError struct {
	Command string
	Message string
	Output  string
}

func (e *ProcessError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("external MCP process %q: %s\noutput tail:\n%s", e.Command, e.Message, e.Output)
	}
	return fmt.Sprintf("external MCP process %q: %s", e.Command, e.Message)
}
