// Package execute runs the fixed build/verify phases. A non-zero exit is a
// normal return value here, never an error: failure information is kept in
// the result so the caller can inspect it.
package execute

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"time"

	"graft/internal/logging"
)

// CommandResult captures one external command invocation.
type CommandResult struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
}

// Runner executes an external command and reports its exit code and
// captured output. Implementations must not return an error for a
// non-zero exit; errors are reserved for failures to start at all.
type Runner interface {
	Run(ctx context.Context, command []string, dir string) (*CommandResult, error)
}

// HostRunner runs commands directly on the host via os/exec, with a
// per-command timeout and bounded output capture.
type HostRunner struct {
	Timeout        time.Duration
	MaxOutputBytes int64
}

// NewHostRunner creates a runner with the given per-command timeout.
func NewHostRunner(timeout time.Duration, maxOutput int64) *HostRunner {
	if maxOutput <= 0 {
		maxOutput = 1 << 20
	}
	return &HostRunner{Timeout: timeout, MaxOutputBytes: maxOutput}
}

// Run executes the command line in dir. A timeout is reported as TimedOut
// with exit code -1, not as an error.
func (r *HostRunner) Run(ctx context.Context, command []string, dir string) (*CommandResult, error) {
	logging.ExecDebug("running: %v (dir=%s, timeout=%s)", command, dir, r.Timeout)

	execCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, command[0], command[1:]...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: r.MaxOutputBytes}
	stderr := &limitedWriter{w: &stderrBuf, max: r.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()

	result := &CommandResult{
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case execCtx.Err() == context.DeadlineExceeded:
		result.ExitCode = -1
		result.TimedOut = true
		logging.ExecWarn("command killed after %s: %v", r.Timeout, command)
	default:
		if exitErr, ok := err.(*exec.ExitError); ok {
			// The command ran and returned non-zero; a normal outcome.
			result.ExitCode = exitErr.ExitCode()
			logging.ExecDebug("command exited non-zero: %v -> %d", command, result.ExitCode)
		} else {
			return nil, err
		}
	}

	logging.Exec("command finished: %v -> exit=%d in %s", command, result.ExitCode, result.Duration)
	return result, nil
}

// limitedWriter caps total bytes written, discarding overflow while still
// reporting full write lengths so the child never sees a short write.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
