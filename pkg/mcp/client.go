package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sparhub/sparrow/pkg/metrics"
)

// Tool describes a single tool advertised by an MCP server.
type Tool map[string]any

// ToolResponse is the outcome of a tools/call invocation: ordered content
// parts plus an error flag. Clients inspect IsError instead of handling a
// Go error; transport failures are folded into an error-flagged response
// after retries are exhausted.
type ToolResponse struct {
	Content []map[string]any `json:"content"`
	IsError bool             `json:"isError"`
}

// Text concatenates the text of all content parts.
func (r *ToolResponse) Text() string {
	var sb strings.Builder
	for _, part := range r.Content {
		if txt, ok := part["text"].(string); ok {
			sb.WriteString(txt)
		}
	}
	return sb.String()
}

// Client speaks JSON-RPC 2.0 over HTTP with SSE-framed responses to one
// external MCP server. Session state (session id, initialized flag) is the
// only mutable state; it is written only by InitializeSession and Close.
type Client struct {
	serverURL      string
	httpClient     *http.Client
	requestTimeout time.Duration
	maxRetries     int
	logger         *slog.Logger

	mu          sync.Mutex
	initialized bool

	sessionMu sync.RWMutex
	sessionID string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.requestTimeout = d }
}

// WithMaxRetries sets the retry budget for tools/list and tools/call.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a client for the MCP server at serverURL (scheme://host:port,
// without the /mcp/ suffix).
func NewClient(serverURL string, opts ...ClientOption) *Client {
	c := &Client{
		serverURL:      strings.TrimRight(serverURL, "/"),
		requestTimeout: DefaultRequestTimeout,
		maxRetries:     DefaultMaxRetries,
		logger:         slog.With("component", "mcp_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{}
	return c
}

// ServerURL returns the base URL of the server this client talks to.
func (c *Client) ServerURL() string { return c.serverURL }

// endpoint returns the JSON-RPC endpoint. The trailing slash matters: some
// servers 307-redirect /mcp to /mcp/ and drop the POST body.
func (c *Client) endpoint() string { return c.serverURL + BaseEndpoint }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int   `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// InitializeSession performs the MCP handshake: an initialize request
// followed by the notifications/initialized notification. Idempotent.
func (c *Client) InitializeSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}

	id := DefaultRequestID
	params := map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    ClientName,
			"version": ClientVersion,
		},
	}

	body, headers, status, err := c.post(ctx, rpcRequest{JSONRPC: JSONRPCVersion, ID: &id, Method: MethodInitialize, Params: params})
	if err != nil {
		return c.classifyTransportError(MethodInitialize, err)
	}
	if status != http.StatusOK {
		return &ProtocolError{Method: MethodInitialize, Message: fmt.Sprintf("unexpected status %d", status)}
	}

	// The server assigns a session id on initialize; every later request
	// must carry it back.
	if sid := headers.Get(SessionIDHeader); sid != "" {
		c.sessionMu.Lock()
		c.sessionID = sid
		c.sessionMu.Unlock()
		c.logger.Debug("Captured MCP session id", "server", c.serverURL)
	}

	ok, _, errMsg, parseErr := ExtractResult(body)
	if parseErr != nil {
		return &ProtocolError{Method: MethodInitialize, Message: parseErr.Error()}
	}
	if !ok {
		return &ProtocolError{Method: MethodInitialize, Message: errMsg}
	}

	// Notification: no id, and 202 Accepted is a valid reply.
	_, _, status, err = c.post(ctx, rpcRequest{JSONRPC: JSONRPCVersion, Method: MethodInitialized})
	if err != nil {
		return c.classifyTransportError(MethodInitialized, err)
	}
	if !notificationStatusCodes[status] {
		return &ProtocolError{Method: MethodInitialized, Message: fmt.Sprintf("unexpected status %d", status)}
	}

	c.initialized = true
	c.logger.Info("MCP session initialized", "server", c.serverURL)
	return nil
}

// HealthCheck probes the server with a GET. Servers commonly refuse GET on
// the RPC endpoint, so 400/405/406 still count as alive. All failures are
// swallowed: the result is a plain boolean.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, DefaultHealthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", AcceptStream)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return healthyStatusCodes[resp.StatusCode]
}

// ListTools fetches the server's tool list. Transient failures are retried
// with capped exponential backoff; after the budget is exhausted an empty
// list is returned rather than an error.
func (c *Client) ListTools(ctx context.Context) []Tool {
	var tools []Tool

	operation := func() error {
		if err := c.InitializeSession(ctx); err != nil {
			return err
		}
		id := DefaultRequestID
		body, _, status, err := c.post(ctx, rpcRequest{JSONRPC: JSONRPCVersion, ID: &id, Method: MethodListTools, Params: map[string]any{}})
		if err != nil {
			return c.classifyTransportError(MethodListTools, err)
		}
		if status != http.StatusOK {
			return &ProtocolError{Method: MethodListTools, Message: fmt.Sprintf("unexpected status %d", status)}
		}
		ok, result, errMsg, parseErr := ExtractResult(body)
		if parseErr != nil {
			return &ProtocolError{Method: MethodListTools, Message: parseErr.Error()}
		}
		if !ok {
			return &ProtocolError{Method: MethodListTools, Message: errMsg}
		}

		tools = tools[:0]
		if resultMap, isMap := result.(map[string]any); isMap {
			if rawTools, isList := resultMap["tools"].([]any); isList {
				for _, raw := range rawTools {
					if tool, toolOK := raw.(map[string]any); toolOK {
						tools = append(tools, Tool(tool))
					}
				}
			}
		}
		return nil
	}

	if err := backoff.RetryNotify(operation, c.newBackoff(ctx), c.noteRetry); err != nil {
		c.logger.Warn("tools/list failed after retries", "server", c.serverURL, "error", err)
		return []Tool{}
	}
	return tools
}

// CallTool invokes a tool by name. Like ListTools it retries transient
// failures; when the budget runs out it returns an error-flagged response
// with a descriptive content part instead of a Go error.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) *ToolResponse {
	var response *ToolResponse

	operation := func() error {
		if err := c.InitializeSession(ctx); err != nil {
			return err
		}
		id := DefaultRequestID
		params := map[string]any{"name": name, "arguments": arguments}
		body, _, status, err := c.post(ctx, rpcRequest{JSONRPC: JSONRPCVersion, ID: &id, Method: MethodCallTool, Params: params})
		if err != nil {
			return c.classifyTransportError(MethodCallTool, err)
		}
		if status != http.StatusOK {
			return &ProtocolError{Method: MethodCallTool, Message: fmt.Sprintf("unexpected status %d", status)}
		}
		ok, result, errMsg, parseErr := ExtractResult(body)
		if parseErr != nil {
			return &ProtocolError{Method: MethodCallTool, Message: parseErr.Error()}
		}
		if !ok {
			return &ProtocolError{Method: MethodCallTool, Message: errMsg}
		}
		response = toolResponseFromResult(result)
		return nil
	}

	if err := backoff.RetryNotify(operation, c.newBackoff(ctx), c.noteRetry); err != nil {
		c.logger.Warn("tools/call failed after retries", "server", c.serverURL, "tool", name, "error", err)
		metrics.MCPToolCallsTotal.WithLabelValues(name, "error").Inc()
		return &ToolResponse{
			IsError: true,
			Content: []map[string]any{
				{"type": "text", "text": fmt.Sprintf("Error calling tool %s: %v", name, err)},
			},
		}
	}
	status := "success"
	if response.IsError {
		status = "error"
	}
	metrics.MCPToolCallsTotal.WithLabelValues(name, status).Inc()
	return response
}

// noteRetry runs before each backoff sleep.
func (c *Client) noteRetry(err error, wait time.Duration) {
	metrics.MCPRetriesTotal.Inc()
	c.logger.Debug("retrying MCP request", "server", c.serverURL, "wait", wait, "error", err)
}

// Close tears down session state. The next request re-initializes.
func (c *Client) Close() {
	c.mu.Lock()
	c.initialized = false
	c.mu.Unlock()

	c.sessionMu.Lock()
	c.sessionID = ""
	c.sessionMu.Unlock()
}

func toolResponseFromResult(result any) *ToolResponse {
	resp := &ToolResponse{Content: []map[string]any{}}
	resultMap, isMap := result.(map[string]any)
	if !isMap {
		return resp
	}
	if isErr, ok := resultMap["isError"].(bool); ok {
		resp.IsError = isErr
	}
	if rawContent, ok := resultMap["content"].([]any); ok {
		for _, raw := range rawContent {
			if part, partOK := raw.(map[string]any); partOK {
				resp.Content = append(resp.Content, part)
			}
		}
	}
	return resp
}

// newBackoff builds the retry policy: 1s, 2s, 4s, ... capped at 60s, for
// maxRetries total attempts.
func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.Multiplier = 2
	b.MaxInterval = MaxBackoffInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries-1)), ctx)
}

// post issues a JSON-RPC POST with the SSE accept header and, once known,
// the session id header. Content-Type is set from the JSON body here and
// nowhere else.
func (c *Client) post(ctx context.Context, rpc rpcRequest) (body string, headers http.Header, status int, err error) {
	payload, err := json.Marshal(rpc)
	if err != nil {
		return "", nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", AcceptSSE)
	c.sessionMu.RLock()
	sid := c.sessionID
	c.sessionMu.RUnlock()
	if sid != "" {
		req.Header.Set(SessionIDHeader, sid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.Header, resp.StatusCode, err
	}
	return string(raw), resp.Header, resp.StatusCode, nil
}

func (c *Client) classifyTransportError(method string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Method: method, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Method: method, Err: err}
	}
	return &ConnectionError{ServerURL: c.serverURL, Err: err}
}
