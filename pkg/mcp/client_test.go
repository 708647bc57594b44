package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mcpTestServer implements just enough of the wire protocol for the client.
type mcpTestServer struct {
	t            *testing.T
	sessionID    string
	seenSessions []string
	initCount    atomic.Int32
	toolsHandler func(w http.ResponseWriter, req map[string]any)
}

func (s *mcpTestServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mcp/" {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		assert.Equal(s.t, AcceptSSE, r.Header.Get("Accept"))

		var req map[string]any
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
		s.seenSessions = append(s.seenSessions, r.Header.Get(SessionIDHeader))

		switch req["method"] {
		case MethodInitialize:
			s.initCount.Add(1)
			if s.sessionID != "" {
				w.Header().Set(SessionIDHeader, s.sessionID)
			}
			writeSSEResult(w, map[string]any{"protocolVersion": ProtocolVersion})
		case MethodInitialized:
			// Notifications carry no id.
			_, hasID := req["id"]
			assert.False(s.t, hasID)
			w.WriteHeader(http.StatusAccepted)
		case MethodListTools:
			s.toolsHandler(w, req)
		case MethodCallTool:
			s.toolsHandler(w, req)
		default:
			s.t.Fatalf("unexpected method %v", req["method"])
		}
	}
}

func writeSSEResult(w http.ResponseWriter, result any) {
	data, _ := json.Marshal(map[string]any{"jsonrpc": JSONRPCVersion, "id": 1, "result": result})
	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
}

func TestInitializeSessionHandshake(t *testing.T) {
	ts := &mcpTestServer{t: t, sessionID: "sess-123"}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client := NewClient(srv.URL)
	require.NoError(t, client.InitializeSession(context.Background()))

	// Idempotent: a second call must not re-handshake.
	require.NoError(t, client.InitializeSession(context.Background()))
	assert.Equal(t, int32(1), ts.initCount.Load())
}

func TestSessionIDAttachedAfterHandshake(t *testing.T) {
	ts := &mcpTestServer{t: t, sessionID: "sess-xyz"}
	ts.toolsHandler = func(w http.ResponseWriter, req map[string]any) {
		writeSSEResult(w, map[string]any{"tools": []any{map[string]any{"name": "get_person_profile"}}})
	}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client := NewClient(srv.URL)
	tools := client.ListTools(context.Background())
	require.Len(t, tools, 1)
	assert.Equal(t, "get_person_profile", tools[0]["name"])

	// initialize had no session yet; everything after carries it.
	last := ts.seenSessions[len(ts.seenSessions)-1]
	assert.Equal(t, "sess-xyz", last)
}

func TestListToolsReturnsEmptyAfterRetries(t *testing.T) {
	ts := &mcpTestServer{t: t}
	ts.toolsHandler = func(w http.ResponseWriter, req map[string]any) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client := NewClient(srv.URL, WithMaxRetries(1))
	tools := client.ListTools(context.Background())
	assert.Empty(t, tools)
}

func TestCallToolSuccess(t *testing.T) {
	ts := &mcpTestServer{t: t}
	ts.toolsHandler = func(w http.ResponseWriter, req map[string]any) {
		params := req["params"].(map[string]any)
		assert.Equal(t, "get_person_profile", params["name"])
		writeSSEResult(w, map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "{\"name\": \"Jane\"}"}},
			"isError": false,
		})
	}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client := NewClient(srv.URL)
	resp := client.CallTool(context.Background(), "get_person_profile", map[string]any{"linkedin_username": "jane"})
	require.False(t, resp.IsError)
	assert.Equal(t, "{\"name\": \"Jane\"}", resp.Text())
}

func TestCallToolErrorFlaggedAfterRetries(t *testing.T) {
	ts := &mcpTestServer{t: t}
	ts.toolsHandler = func(w http.ResponseWriter, req map[string]any) {
		data, _ := json.Marshal(map[string]any{
			"jsonrpc": JSONRPCVersion, "id": 1,
			"error": map[string]any{"code": -32000, "message": "tool exploded"},
		})
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
	}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client := NewClient(srv.URL, WithMaxRetries(1))
	resp := client.CallTool(context.Background(), "get_person_profile", nil)
	require.True(t, resp.IsError)
	assert.Contains(t, resp.Text(), "Error calling tool get_person_profile")
	assert.Contains(t, resp.Text(), "tool exploded")
}

func TestHealthCheckStatusCodes(t *testing.T) {
	for _, tc := range []struct {
		status  int
		healthy bool
	}{
		{200, true}, {400, true}, {405, true}, {406, true},
		{500, false}, {404, false},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := NewClient(srv.URL)
		assert.Equal(t, tc.healthy, client.HealthCheck(context.Background()), "status %d", tc.status)
		srv.Close()
	}
}

func TestHealthCheckUnreachableServer(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	assert.False(t, client.HealthCheck(context.Background()))
}

func TestInitializeProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := json.Marshal(map[string]any{
			"jsonrpc": JSONRPCVersion, "id": 1,
			"error": map[string]any{"code": -32600, "message": "unsupported protocol"},
		})
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.InitializeSession(context.Background())
	require.Error(t, err)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "unsupported protocol", protoErr.Message)
}
