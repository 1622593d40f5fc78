// Package tui provides the Bubble Tea dashboard shown while pipelines
// run.
package tui

import "github.com/skylift/skylift/internal/provisioning"

// StepStartedMsg reports that a pipeline step began executing.
type StepStartedMsg struct {
	Name string
}

// StepFinishedMsg reports the outcome of a finished step.
type StepFinishedMsg struct {
	Name    string
	Outcome provisioning.Outcome
	Err     error
}

// WarningMsg carries a non-fatal warning to display.
type WarningMsg struct {
	Text string
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries a fatal error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the pipeline finished.
type DoneMsg struct{}
