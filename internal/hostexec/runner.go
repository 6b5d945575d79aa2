package hostexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/alexisbeaulieu97/deployerra/internal/logger"
)

// Runner executes one shell command line at a time and blocks until it exits.
//
// A non-zero exit status is reported through Result.ExitCode with a nil error.
// The error is reserved for commands that could not be started or that were
// stopped by the context or the configured timeout.
type Runner interface {
	Run(ctx context.Context, command string, opts ...Option) (Result, error)
}

// RunOptions holds per-invocation settings.
type RunOptions struct {
	Stdin  io.Reader
	Stream bool
}

// Option mutates RunOptions.
type Option func(*RunOptions)

// WithStdin feeds r to the command's standard input.
func WithStdin(r io.Reader) Option {
	return func(o *RunOptions) { o.Stdin = r }
}

// Streaming mirrors the command's output to the runner's writers while it
// is still being captured. Mutating actions use it so package manager
// progress stays visible to the operator.
func Streaming() Option {
	return func(o *RunOptions) { o.Stream = true }
}

const waitDelay = 2 * time.Second

// ShellRunner runs commands through `sh -c` and inherits the process environment.
type ShellRunner struct {
	Shell   string
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
	Logger  *logger.Logger
}

// NewShellRunner returns a runner mirroring streamed output to the process
// stdout/stderr. A zero timeout waits for every command without a deadline.
func NewShellRunner(timeout time.Duration, log *logger.Logger) *ShellRunner {
	return &ShellRunner{
		Shell:   "sh",
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Timeout: timeout,
		Logger:  log,
	}
}

// Run implements Runner.
func (r *ShellRunner) Run(ctx context.Context, command string, opts ...Option) (Result, error) {
	var ro RunOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Env = os.Environ()
	// Children that outlive a killed shell must not hold the pipes open.
	cmd.WaitDelay = waitDelay
	if ro.Stdin != nil {
		cmd.Stdin = ro.Stdin
	}
	if ro.Stream {
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	}

	start := time.Now()
	res, err := RunStreaming(cmd)
	log := r.Logger.WithFields(map[string]any{
		"command":     command,
		"exit_code":   res.ExitCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			ctxErr = fmt.Errorf("command exceeded %s timeout: %w", r.Timeout, ctxErr)
		}
		log.Error(ctxErr, "command interrupted")
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		log.Error(err, "command could not be started")
		return res, err
	}

	log.Debug("command finished")
	return res, nil
}

var _ Runner = (*ShellRunner)(nil)
