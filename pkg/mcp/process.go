package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	healthPollInterval = 1 * time.Second
	stopGracePeriod    = 5 * time.Second
	outputTailBytes    = 4096
)

// Process supervises one child process hosting an MCP server. The owning
// plugin is the only mutator; Start, Stop and IsRunning are safe to call
// from that single owner.
type Process struct {
	command        string
	args           []string
	host           string
	port           int
	startupTimeout time.Duration
	logger         *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited bool
	waitCh chan error
	stdout *tailBuffer
	stderr *tailBuffer
}

// NewProcess prepares a supervisor for the given executable and bind address.
// Nothing is spawned until Start.
func NewProcess(command string, args []string, host string, port int, startupTimeout time.Duration) *Process {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	if startupTimeout == 0 {
		startupTimeout = DefaultStartupTimeout
	}
	return &Process{
		command:        command,
		args:           args,
		host:           host,
		port:           port,
		startupTimeout: startupTimeout,
		logger:         slog.With("component", "mcp_process", "command", command),
	}
}

// ServerURL returns the HTTP base URL the child binds to.
func (p *Process) ServerURL() string {
	return fmt.Sprintf("http://%s:%d", p.host, p.port)
}

// Start spawns the child and polls its health endpoint every second until it
// responds or the startup timeout elapses. If the child dies while starting,
// the tail of its output is captured into the returned error.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.cmd != nil {
		p.mu.Unlock()
		return nil
	}

	cmd := exec.Command(p.command, p.args...)
	stdout := &tailBuffer{limit: outputTailBytes}
	stderr := &tailBuffer{limit: outputTailBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return &ProcessError{Command: p.command, Message: fmt.Sprintf("failed to spawn: %v", err)}
	}

	waitCh := make(chan error, 1)
	p.cmd = cmd
	p.exited = false
	p.waitCh = waitCh
	p.stdout = stdout
	p.stderr = stderr
	p.mu.Unlock()

	p.logger.Info("Spawned external MCP server", "pid", cmd.Process.Pid, "url", p.ServerURL())

	// Single reaper goroutine; everyone else observes the exit through
	// waitCh or the exited flag.
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.exited = true
		p.mu.Unlock()
		waitCh <- err
	}()

	healthClient := NewClient(p.ServerURL())
	deadline := time.Now().Add(p.startupTimeout)
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			p.kill()
			return &ProcessError{Command: p.command, Message: "startup cancelled"}
		case err := <-waitCh:
			p.clear()
			return &ProcessError{
				Command: p.command,
				Message: fmt.Sprintf("exited during startup: %v", err),
				Output:  p.outputTail(),
			}
		case <-ticker.C:
			if healthClient.HealthCheck(ctx) {
				p.logger.Info("External MCP server healthy", "url", p.ServerURL())
				return nil
			}
		}
	}

	p.kill()
	return &ProcessError{
		Command: p.command,
		Message: fmt.Sprintf("did not become healthy within %s", p.startupTimeout),
		Output:  p.outputTail(),
	}
}

// Stop requests graceful termination, waits up to 5 seconds, then kills.
func (p *Process) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	waitCh := p.waitCh
	exited := p.exited
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil || exited {
		p.clear()
		return
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = cmd.Process.Kill()
		p.clear()
		return
	}

	select {
	case <-waitCh:
		p.logger.Info("External MCP server stopped gracefully")
	case <-time.After(stopGracePeriod):
		p.logger.Warn("External MCP server did not stop in time, killing")
		_ = cmd.Process.Kill()
		<-waitCh
	}
	p.clear()
}

// Restart stops the child if running and starts it again.
func (p *Process) Restart(ctx context.Context) error {
	p.Stop()
	return p.Start(ctx)
}

// IsRunning reports whether the child is alive.
func (p *Process) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil && !p.exited
}

// kill force-terminates the child and waits for the reaper to observe it.
func (p *Process) kill() {
	p.mu.Lock()
	cmd := p.cmd
	waitCh := p.waitCh
	exited := p.exited
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil && !exited {
		_ = cmd.Process.Kill()
		if waitCh != nil {
			<-waitCh
		}
	}
	p.clear()
}

func (p *Process) clear() {
	p.mu.Lock()
	p.cmd = nil
	p.waitCh = nil
	p.mu.Unlock()
}

func (p *Process) outputTail() string {
	p.mu.Lock()
	stdout := p.stdout
	stderr := p.stderr
	p.mu.Unlock()

	var parts []string
	if stdout != nil && stdout.String() != "" {
		parts = append(parts, "stdout: "+stdout.String())
	}
	if stderr != nil && stderr.String() != "" {
		parts = append(parts, "stderr: "+stderr.String())
	}
	return strings.Join(parts, "\n")
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
