// Package confirm gates destructive or cost-incurring actions behind
// operator approval.
//
// The gate is a pluggable Source so tests inject deterministic answers.
// The production Source prompts on the controlling terminal; forced mode
// (--force) auto-approves without prompting. A headless run without
// --force rejects instead of hanging on a prompt nobody can answer.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrUserCancelled indicates the operator rejected a gated action.
var ErrUserCancelled = errors.New("cancelled by user")

// Decision is the outcome of consulting the gate. It is ephemeral and
// recomputed for every gated action.
type Decision struct {
	Approved bool
	Forced   bool
}

// Request describes the action awaiting approval.
type Request struct {
	Title       string
	Description string

	// RequireLiteral, when non-empty, demands the operator type this
	// exact string instead of answering yes/no. Used for full teardown,
	// where the literal is the project ID.
	RequireLiteral string
}

// Source produces approval decisions.
type Source interface {
	Confirm(ctx context.Context, req Request) (Decision, error)
}

// NewSource returns the Source matching the execution mode.
func NewSource(forced bool) Source {
	if forced {
		return Forced{}
	}
	return &Interactive{}
}

// Forced auto-approves every request without prompting.
type Forced struct{}

// Confirm implements Source.
func (Forced) Confirm(_ context.Context, _ Request) (Decision, error) {
	return Decision{Approved: true, Forced: true}, nil
}

// Interactive prompts the operator on the controlling terminal.
type Interactive struct {
	// IdleTimeout bounds how long the prompt waits for input. Zero
	// means wait indefinitely, which is the right behavior on a real
	// terminal; CI environments should set a timeout or use --force.
	IdleTimeout time.Duration
}

// Confirm implements Source.
func (s *Interactive) Confirm(ctx context.Context, req Request) (Decision, error) {
	if !isTerminal() {
		// Headless without --force: reject rather than block forever.
		return Decision{}, nil
	}

	if s.IdleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.IdleTimeout)
		defer cancel()
	}

	if req.RequireLiteral != "" {
		return s.confirmLiteral(ctx, req)
	}

	var approved bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(req.Title).
				Description(req.Description).
				Affirmative("yes").
				Negative("no").
				Value(&approved),
		),
	).RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Decision{}, nil
		}
		return Decision{}, fmt.Errorf("confirmation prompt: %w", err)
	}

	return Decision{Approved: approved}, nil
}

func (s *Interactive) confirmLiteral(ctx context.Context, req Request) (Decision, error) {
	var typed string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(req.Title).
				Description(fmt.Sprintf("%s\nType %q to confirm.", req.Description, req.RequireLiteral)).
				Value(&typed),
		),
	).RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Decision{}, nil
		}
		return Decision{}, fmt.Errorf("confirmation prompt: %w", err)
	}

	return Decision{Approved: typed == req.RequireLiteral}, nil
}

func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
