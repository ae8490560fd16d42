// Package execx runs external CLI binaries (helm, kubectl) with timeout and
// structured error capture. Arguments are always passed as an argv array,
// never through a shell.
package execx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/pkg/metrics"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner is the subprocess contract consumed by the helm and kube layers.
// Tests substitute a spy to assert a subprocess was (or was not) spawned.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader, timeout time.Duration) (*Result, error)
}

// Executor is the production Runner backed by os/exec.
type Executor struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{log: log}
}

// Run executes binary with args and returns captured stdout/stderr.
// Returns *errdefs.BinaryNotFoundError if the executable is missing from
// PATH, *errdefs.TimeoutError if the deadline elapses (the process is
// killed), and *errdefs.ExecutionError on non-zero exit. The full command
// line is logged at info level; secrets travel via temp files or stdin, not
// argv, so logging argv is safe.
func (e *Executor) Run(ctx context.Context, binary string, args []string, stdin io.Reader, timeout time.Duration) (*Result, error) {
	cmdline := binary + " " + strings.Join(args, " ")

	if _, err := exec.LookPath(binary); err != nil {
		metrics.SubprocessInvocationsTotal.WithLabelValues(binary, "not_found").Inc()
		return nil, &errdefs.BinaryNotFoundError{Binary: binary}
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e.log.Info("executing command", "command", cmdline)
	start := time.Now()

	cmd := exec.CommandContext(runCtx, binary, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)
	metrics.SubprocessDurationSeconds.WithLabelValues(binary).Observe(elapsed.Seconds())

	if runCtx.Err() == context.DeadlineExceeded {
		metrics.SubprocessInvocationsTotal.WithLabelValues(binary, "timeout").Inc()
		e.log.Error("command timed out", "command", cmdline, "timeout", timeout)
		return nil, &errdefs.TimeoutError{Command: cmdline, Timeout: timeout}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			metrics.SubprocessInvocationsTotal.WithLabelValues(binary, "error").Inc()
			e.log.Error("command failed",
				"command", cmdline,
				"exit_code", exitErr.ExitCode(),
				"stderr", strings.TrimSpace(stderr.String()),
			)
			return &Result{
					Stdout:   stdout.String(),
					Stderr:   stderr.String(),
					ExitCode: exitErr.ExitCode(),
				}, &errdefs.ExecutionError{
					Message: "command failed",
					Command: cmdline,
					Stderr:  strings.TrimSpace(stderr.String()),
				}
		}
		metrics.SubprocessInvocationsTotal.WithLabelValues(binary, "error").Inc()
		return nil, &errdefs.ExecutionError{
			Message: err.Error(),
			Command: cmdline,
			Stderr:  strings.TrimSpace(stderr.String()),
		}
	}

	metrics.SubprocessInvocationsTotal.WithLabelValues(binary, "success").Inc()
	e.log.Debug("command succeeded", "command", cmdline, "duration", elapsed)
	return &Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: 0}, nil
}
