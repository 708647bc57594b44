package mcp

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startHealthEndpoint binds a real listener on 127.0.0.1 and serves 200 on
// /mcp/ so a supervised child appears healthy.
func startHealthEndpoint(t *testing.T) (host string, port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})}
	go func() { _ = srv.Serve(ln) }()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, func() { _ = srv.Close() }
}

func TestProcessLifecycle(t *testing.T) {
	host, port, stopHTTP := startHealthEndpoint(t)
	defer stopHTTP()

	proc := NewProcess("sleep", []string{"30"}, host, port, 10*time.Second)
	assert.False(t, proc.IsRunning())

	require.NoError(t, proc.Start(context.Background()))
	assert.True(t, proc.IsRunning())

	proc.Stop()
	assert.False(t, proc.IsRunning())
}

func TestProcessDiesDuringStartup(t *testing.T) {
	proc := NewProcess("false", nil, "127.0.0.1", 59999, 10*time.Second)

	err := proc.Start(context.Background())
	require.Error(t, err)

	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Contains(t, procErr.Message, "exited during startup")
	assert.False(t, proc.IsRunning())
}

func TestProcessStartupTimeout(t *testing.T) {
	// Nothing listens on the health port, so the poll loop must give up
	// and terminate the child.
	proc := NewProcess("sleep", []string{"30"}, "127.0.0.1", 59998, 2*time.Second)

	err := proc.Start(context.Background())
	require.Error(t, err)

	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Contains(t, procErr.Message, "did not become healthy")
	assert.False(t, proc.IsRunning())
}

func TestProcessSpawnFailure(t *testing.T) {
	proc := NewProcess("/nonexistent/binary", nil, "127.0.0.1", 59997, time.Second)

	err := proc.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to spawn")
}

func TestProcessServerURL(t *testing.T) {
	proc := NewProcess("server", nil, "", 0, 0)
	assert.Equal(t, "http://127.0.0.1:8080", proc.ServerURL())

	proc = NewProcess("server", nil, "0.0.0.0", 9000, 0)
	assert.Equal(t, "http://0.0.0.0:9000", proc.ServerURL())
}
