// Package executor spawns gateway commands as shell-interpreted subprocesses
// with a hard wall-clock timeout and captures their output.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luna-agent/luna/internal/gateway/environment"
)

// Error definitions
var (
	ErrEmptyCommand   = errors.New("command cannot be empty")
	ErrTimeout        = errors.New("command timed out")
	ErrExecutionFault = errors.New("command execution failed")
)

// Stream names for command output
const (
	// StdoutStream is the name of the standard output stream
	StdoutStream = "stdout"
	// StderrStream is the name of the standard error stream
	StderrStream = "stderr"
)

// ExitCodeUnknown is reported when the process never produced an exit status
const ExitCodeUnknown = -1

// DefaultOutputSizeLimit caps each captured stream (10MB)
const DefaultOutputSizeLimit int64 = 10 * 1024 * 1024

// stopReason records why the executor killed the process group, if it did
type stopReason int32

const (
	stopNone stopReason = iota
	stopTimeout
	stopCancelled
)

// CommandExecutor runs one command line
type CommandExecutor interface {
	// Execute runs text through the shell with exactly env as its
	// environment. A non-zero exit is reported in Result with a nil error;
	// errors are reserved for timeouts and failures to run the process.
	Execute(ctx context.Context, text string, env map[string]string, timeout time.Duration) (*Result, error)
}

// Result contains the result of a command execution
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// OutputWriter receives output chunks as the process produces them
type OutputWriter interface {
	Write(stream string, data []byte) error
}

// DefaultExecutor is the default implementation of CommandExecutor
type DefaultExecutor struct {
	// Shell interprets the command text; empty selects the platform shell.
	Shell string
	// Out, when set, receives live output in addition to the captured buffers.
	Out OutputWriter
	// OutputLimit caps the bytes captured per stream; 0 means unlimited.
	// Output past the cap is dropped and a truncation marker is appended.
	OutputLimit int64
}

// NewDefaultExecutor creates an executor using shell, or the platform shell
// when empty, with the default output limit
func NewDefaultExecutor(shell string) *DefaultExecutor {
	return &DefaultExecutor{Shell: shell, OutputLimit: DefaultOutputSizeLimit}
}

// Execute implements the CommandExecutor interface
func (e *DefaultExecutor) Execute(ctx context.Context, text string, env map[string]string, timeout time.Duration) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCommand
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: invalid timeout %s", ErrExecutionFault, timeout)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := e.Shell
	if shell == "" {
		shell = defaultShell
	}

	// #nosec G204 - text has passed the safety validator before reaching the executor
	cmd := exec.CommandContext(runCtx, shell, shellFlag, text)
	cmd.Env = environment.ToList(env)
	setupProcessGroup(cmd)

	// Cancel runs only when the context ends before the process exits
	var stopped atomic.Int32
	kill := cmd.Cancel
	cmd.Cancel = func() error {
		reason := stopTimeout
		if ctx.Err() != nil {
			reason = stopCancelled
		}
		err := kill()
		if err == nil {
			stopped.Store(int32(reason))
		}
		return err
	}

	stdout := &outputWrapper{writer: e.Out, stream: StdoutStream, limit: e.OutputLimit}
	stderr := &outputWrapper{writer: e.Out, stream: StderrStream, limit: e.OutputLimit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	runErr := cmd.Run()

	result := &Result{
		ExitCode: ExitCodeUnknown,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	return result, runOutcome(stopReason(stopped.Load()), runErr, ctx.Err(), timeout, result.ExitCode)
}

// runOutcome maps how the run ended to the executor's error contract
func runOutcome(stop stopReason, runErr, callerErr error, timeout time.Duration, exitCode int) error {
	switch stop {
	case stopTimeout:
		return fmt.Errorf("%w after %s", ErrTimeout, FormatTimeout(timeout))
	case stopCancelled:
		return fmt.Errorf("%w: %w", ErrExecutionFault, callerErr)
	}
	if runErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && exitCode >= 0 {
		return nil
	}
	// Start refuses a context that already ended
	if errors.Is(runErr, context.DeadlineExceeded) && callerErr == nil {
		return fmt.Errorf("%w after %s", ErrTimeout, FormatTimeout(timeout))
	}
	return fmt.Errorf("%w: %w", ErrExecutionFault, runErr)
}

// FormatTimeout renders a timeout the way it was configured, in whole
// seconds when possible
func FormatTimeout(timeout time.Duration) string {
	if timeout%time.Second == 0 {
		secs := int64(timeout / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	return timeout.String()
}

// ToolInstalled reports whether name resolves to an executable on PATH
func ToolInstalled(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// TruncationMarker is appended to a captured stream that hit the output limit
const TruncationMarker = "\n[output truncated at %d bytes]\n"

// outputWrapper is an io.Writer that both captures output in a buffer, up
// to limit bytes, and forwards it to an OutputWriter with a specific stream
// name
type outputWrapper struct {
	writer    OutputWriter
	stream    string
	limit     int64
	buffer    bytes.Buffer
	truncated bool
	mu        sync.Mutex
}

func (w *outputWrapper) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.capture(p)

	if w.writer != nil {
		// Live output is best effort; the captured buffer is authoritative.
		_ = w.writer.Write(w.stream, p)
	}

	// Report the full length so the process keeps running past the cap
	return len(p), nil
}

func (w *outputWrapper) capture(p []byte) {
	if w.limit <= 0 {
		w.buffer.Write(p)
		return
	}
	room := w.limit - int64(w.buffer.Len())
	if room <= 0 {
		w.truncated = w.truncated || len(p) > 0
		return
	}
	if int64(len(p)) > room {
		p = p[:room]
		w.truncated = true
	}
	w.buffer.Write(p)
}

func (w *outputWrapper) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.truncated {
		return w.buffer.String() + fmt.Sprintf(TruncationMarker, w.limit)
	}
	return w.buffer.String()
}
