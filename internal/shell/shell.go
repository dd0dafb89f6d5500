// Package shell runs command lines under a concrete platform shell.
// Adapters never rewrite the command text they are given; any
// correction or vetting has already happened upstream.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

var (
	// ErrSpawn means the shell process could not be started at all.
	ErrSpawn = errors.New("failed to spawn shell process")
	// ErrTimeout means the process was killed after exceeding its deadline.
	ErrTimeout = errors.New("command timed out")
)

// ExecRequest describes one command execution.
type ExecRequest struct {
	// Command is the exact command line handed to the shell.
	Command string
	// WorkingDir is the directory the command runs in. Empty means the
	// current process directory.
	WorkingDir string
	// Stdin is fed to the process as standard input. Used when pipe
	// segments chain output into the next command.
	Stdin string
	// Timeout bounds the execution. Zero or negative falls back to
	// consts.DefaultShellTimeout.
	Timeout time.Duration
}

// ExecResult carries everything observed about a finished execution.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// TimedOut is set when the process group was killed at the deadline.
	TimedOut bool
	// Truncated is set when either output stream hit its capture cap.
	Truncated bool
}

// Adapter executes commands under one shell family.
type Adapter interface {
	// Run executes the request and returns a result. A non-nil result is
	// returned alongside ErrTimeout so partial output survives the kill.
	Run(ctx context.Context, req ExecRequest) (*ExecResult, error)
	// Platform reports which shell family this adapter drives.
	Platform() platform.Platform
}

// ForPlatform returns the adapter that executes commands for p.
func ForPlatform(p platform.Platform) (Adapter, error) {
	switch p {
	case platform.Bash:
		return NewBashAdapter(), nil
	case platform.PowerShell:
		return NewPowerShellAdapter(), nil
	default:
		return nil, fmt.Errorf("no shell adapter for platform %q", p)
	}
}

// cappedBuffer collects stream output up to a fixed cap. Writes past the
// cap are swallowed rather than failed so the child process never sees a
// broken pipe and keeps running to its own completion.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.max - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

// runCommand starts name with args and waits for completion, a timeout, or
// context cancellation. On timeout or cancellation the whole process group
// is killed and the loop keeps draining until Wait returns, so no zombie
// survives the deadline.
func runCommand(ctx context.Context, log *logger.Logger, name string, args []string, req ExecRequest) (*ExecResult, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = req.WorkingDir
	cmd.Env = os.Environ()
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}
	configureProcessGroup(cmd)

	stdout := newCappedBuffer(consts.BufferSize1MB)
	stderr := newCappedBuffer(consts.BufferSize1MB)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultShellTimeout
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	log.Debug("started %s pid=%d timeout=%s", name, cmd.Process.Pid, timeout)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	timerC := timer.C
	ctxDone := ctx.Done()

	var timedOut, canceled bool
	for {
		select {
		case waitErr := <-done:
			result := buildResult(waitErr, stdout, stderr, time.Since(start), timedOut)
			if timedOut {
				log.Warn("killed %s pid=%d after %s", name, cmd.Process.Pid, timeout)
				return result, fmt.Errorf("%w after %s", ErrTimeout, timeout)
			}
			if canceled {
				return result, ctx.Err()
			}
			return result, nil

		case <-ctxDone:
			canceled = true
			ctxDone = nil
			killProcessTree(cmd)
			// keep draining until Wait returns

		case <-timerC:
			timedOut = true
			timerC = nil
			killProcessTree(cmd)
		}
	}
}

// buildResult translates a Wait error into an exit code. A killed process
// reports -1 so callers never mistake a timeout for a clean exit.
func buildResult(waitErr error, stdout, stderr *cappedBuffer, elapsed time.Duration, timedOut bool) *ExecResult {
	result := &ExecResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  elapsed,
		TimedOut:  timedOut,
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}
	if timedOut {
		result.ExitCode = -1
		return result
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result
}
