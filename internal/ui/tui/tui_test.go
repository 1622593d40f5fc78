package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylift/skylift/internal/provisioning"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelTracksStepLifecycle(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", []string{"project", "service account"})

	m = update(t, m, StepStartedMsg{Name: "project"})
	assert.True(t, m.Steps[0].Active)
	assert.Zero(t, m.FinishedCount())

	m = update(t, m, StepFinishedMsg{Name: "project", Outcome: provisioning.OutcomeCreated})
	assert.False(t, m.Steps[0].Active)
	assert.True(t, m.Steps[0].Finished)
	assert.Equal(t, provisioning.OutcomeCreated, m.Steps[0].Outcome)
	assert.Equal(t, 1, m.FinishedCount())
}

func TestModelAppendsUnknownSteps(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", nil)
	m = update(t, m, StepStartedMsg{Name: "surprise"})
	require.Len(t, m.Steps, 1)
	assert.Equal(t, "surprise", m.Steps[0].Name)
	assert.True(t, m.Steps[0].Active)
}

func TestModelCollectsWarnings(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", nil)
	m = update(t, m, WarningMsg{Text: "budget creation failed"})
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.View(), "budget creation failed")
}

func TestModelQuitsOnError(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", nil)
	next, cmd := m.Update(ErrMsg{Err: errors.New("boom")})
	assert.NotNil(t, cmd)
	assert.EqualError(t, next.(Model).Err, "boom")
}

func TestModelQuitsOnKeyPress(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.NotNil(t, cmd)
}

func TestTickAdvancesSpinner(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", []string{"project"})
	m = update(t, m, TickMsg{})
	assert.Equal(t, 1, m.SpinnerFrame)
}

func TestViewShowsOutcomeMarks(t *testing.T) {
	t.Parallel()

	m := NewModel("provision", "staging", []string{"a", "b", "c", "d"})
	m = update(t, m, StepFinishedMsg{Name: "a", Outcome: provisioning.OutcomeCreated})
	m = update(t, m, StepFinishedMsg{Name: "b", Outcome: provisioning.OutcomeSkipped})
	m = update(t, m, StepFinishedMsg{Name: "c", Outcome: provisioning.OutcomeFailed, Err: errors.New("exit status 1")})

	view := m.View()
	assert.Contains(t, view, checkMark)
	assert.Contains(t, view, skipMark)
	assert.Contains(t, view, crossMark)
	assert.Contains(t, view, pending)
	assert.Contains(t, view, "exit status 1")
}

func TestObserverForwardsEvents(t *testing.T) {
	t.Parallel()

	var got []tea.Msg
	obs := NewObserver(func(msg tea.Msg) { got = append(got, msg) })

	obs.Event(provisioning.Event{Type: provisioning.EventStepStarted, Step: "project"})
	obs.Event(provisioning.Event{Type: provisioning.EventStepCreated, Step: "project"})
	obs.Event(provisioning.Event{Type: provisioning.EventStepFailed, Step: "budget", Message: "denied"})
	obs.Event(provisioning.Event{Type: provisioning.EventWarning, Message: "careful"})
	// pipeline-level events carry no step display
	obs.Event(provisioning.Event{Type: provisioning.EventPipelineStarted})

	require.Len(t, got, 4)
	assert.Equal(t, StepStartedMsg{Name: "project"}, got[0])
	assert.Equal(t, StepFinishedMsg{Name: "project", Outcome: provisioning.OutcomeCreated}, got[1])
	failed, ok := got[2].(StepFinishedMsg)
	require.True(t, ok)
	assert.Equal(t, provisioning.OutcomeFailed, failed.Outcome)
	assert.EqualError(t, failed.Err, "denied")
	assert.Equal(t, WarningMsg{Text: "careful"}, got[3])
}

func TestSettleReturnsPipelineResult(t *testing.T) {
	t.Parallel()

	done := make(chan error, 1)
	done <- nil
	require.NoError(t, settle(Model{Done: true}, func() {}, done))

	failed := errors.New("budget: denied")
	done = make(chan error, 1)
	done <- failed
	assert.Equal(t, failed, settle(Model{Err: failed}, func() {}, done))
}

func TestSettleStopsAbandonedRun(t *testing.T) {
	t.Parallel()

	// Quitting before the pipeline settles must cancel it and wait for
	// the result instead of detaching it silently.
	done := make(chan error, 1)
	cancel := func() { done <- context.Canceled }

	err := settle(Model{}, cancel, done)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "dashboard closed")
}

func TestSettleQuitAfterCleanFinish(t *testing.T) {
	t.Parallel()

	done := make(chan error, 1)
	done <- nil
	require.NoError(t, settle(Model{}, func() {}, done))
}
