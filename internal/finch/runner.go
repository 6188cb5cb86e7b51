// Package finch drives the finch container CLI as a subprocess and reshapes
// its output into status/message envelopes.
package finch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/finch-mcp/internal/logging"
)

// ErrNotInstalled is returned when the finch binary cannot be found on PATH.
var ErrNotInstalled = errors.New("finch is not installed or not in PATH")

// Output captures one finch invocation.
type Output struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited zero.
func (o *Output) Success() bool { return o.ExitCode == 0 }

// ErrorText is the trimmed stderr, or a generic exit message when stderr is empty.
func (o *Output) ErrorText() string {
	if s := strings.TrimSpace(o.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("exit status %d", o.ExitCode)
}

// Runner executes finch with the given arguments. A non-zero exit is reported
// through Output.ExitCode; the error is reserved for failures to run at all.
type Runner interface {
	Run(ctx context.Context, args ...string) (*Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, args ...string) (*Output, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, args ...string) (*Output, error) {
	return f(ctx, args...)
}

// waitDelay bounds how long a cancelled invocation may hold its pipes open.
const waitDelay = 2 * time.Second

// ExecRunner runs the real finch binary.
type ExecRunner struct {
	Binary  string
	Timeout time.Duration
	Env     []string // appended to the inherited environment
	log     *logging.Logger
}

// NewExecRunner creates a runner for the given binary.
func NewExecRunner(binary string, timeout time.Duration, log *logging.Logger) *ExecRunner {
	if binary == "" {
		binary = "finch"
	}
	return &ExecRunner{Binary: binary, Timeout: timeout, log: log.Sub("finch")}
}

// Run executes the binary and captures stdout and stderr separately.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (*Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.WaitDelay = waitDelay
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Strs("args", args).Msg("running finch")

	start := time.Now()
	err := cmd.Run()
	out := &Output{
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			out.ExitCode = exitErr.ExitCode()
			r.log.Debug().
				Strs("args", args).
				Int("exitCode", out.ExitCode).
				Str("stderr", strings.TrimSpace(out.Stderr)).
				Dur("duration", out.Duration).
				Msg("finch exited non-zero")
			return out, nil
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		out.ExitCode = -1
		r.log.Error().Err(err).Strs("args", args).Msg("finch failed to run")
		return out, fmt.Errorf("running %s: %w", r.Binary, err)
	}

	r.log.Debug().
		Strs("args", args).
		Int("stdoutBytes", stdout.Len()).
		Dur("duration", out.Duration).
		Msg("finch done")
	return out, nil
}

// Observer is called after every invocation made through an observed runner.
type Observer func(ctx context.Context, out *Output, err error)

type observed struct {
	next Runner
	obs  Observer
}

// Observed wraps a runner so that obs sees every invocation.
func Observed(next Runner, obs Observer) Runner {
	return &observed{next: next, obs: obs}
}

func (o *observed) Run(ctx context.Context, args ...string) (*Output, error) {
	out, err := o.next.Run(ctx, args...)
	if out == nil {
		out = &Output{Args: args, ExitCode: -1}
	}
	o.obs(ctx, out, err)
	return out, err
}

// Installed checks whether binary is on PATH.
func Installed(binary string) error {
	if binary == "" {
		binary = "finch"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return ErrNotInstalled
	}
	return nil
}
