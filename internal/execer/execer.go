// Package execer runs external CLI tools (terraform, gcloud) as subprocesses
// and reports their outcome without interpreting it.
//
// A non-zero exit code is not an error here: different steps treat the same
// exit differently (an "already exists" complaint from gcloud is a success
// for an idempotent step). Callers pass the captured Result through
// Classify to decide.
package execer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const (
	// maxCapturedOutput bounds how much stdout/stderr is retained per
	// invocation. terraform apply can emit a lot over several minutes;
	// anything beyond the cap is discarded, not buffered.
	maxCapturedOutput = 1 << 20 // 1 MiB per stream

	defaultTimeout = 10 * time.Minute
)

// ErrToolMissing indicates the executable was not found in PATH.
var ErrToolMissing = errors.New("required tool not found in PATH")

// ErrTimeout indicates the command exceeded its deadline.
var ErrTimeout = errors.New("command timed out")

// Result captures a completed subprocess invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the command exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command and waits for completion. Non-zero exit
	// status is returned inside Result, not as an error. The returned
	// error is reserved for failures to run at all: missing executable,
	// context deadline, or process setup problems.
	Run(ctx context.Context, command string, args ...string) (Result, error)
}

// RealRunner executes actual subprocesses.
type RealRunner struct {
	// Dir, when set, is the working directory for every command.
	Dir string

	// Timeout applies when the caller's context has no deadline.
	Timeout time.Duration
}

// NewRunner creates a RealRunner with the default timeout.
func NewRunner() *RealRunner {
	return &RealRunner{Timeout: defaultTimeout}
}

// Run implements Runner.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (Result, error) {
	if _, err := exec.LookPath(command); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrToolMissing, command)
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = r.Dir

	stdout := newCappedBuffer(maxCapturedOutput)
	stderr := newCappedBuffer(maxCapturedOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: %s %v", ErrTimeout, command, ctx.Err())
		}
		if ctx.Err() != nil {
			// Caller cancellation (Ctrl-C, aborted dashboard) is not a
			// command timeout.
			return result, fmt.Errorf("%s interrupted: %w", command, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("running %s: %w", command, err)
	}

	return result, nil
}

var _ Runner = (*RealRunner)(nil)

// cappedBuffer retains at most max bytes and silently drops the rest.
type cappedBuffer struct {
	max       int
	buf       []byte
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if remaining := b.max - len(b.buf); remaining > 0 {
		if len(p) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
			b.truncated = true
		} else {
			b.buf = append(b.buf, p...)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return string(b.buf) + "\n[output truncated]"
	}
	return string(b.buf)
}
