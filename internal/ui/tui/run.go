package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/skylift/skylift/internal/provisioning"
)

// RunPipeline wraps a pipeline run with the dashboard. run receives a
// context cancelled when the operator closes the dashboard, plus an
// observer that feeds the display; its returned error surfaces after
// the program exits.
func RunPipeline(ctx context.Context, title, environment string, stepNames []string, run func(ctx context.Context, obs provisioning.Observer) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(title, environment, stepNames)
	p := tea.NewProgram(m, tea.WithAltScreen())

	done := make(chan error, 1)
	go func() {
		err := run(ctx, NewObserver(p.Send))
		done <- err
		if err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return fmt.Errorf("TUI error: %w", err)
	}

	return settle(finalModel.(Model), cancel, done)
}

// settle reconciles the final dashboard state with the pipeline
// goroutine. When the operator quit mid-run, the pipeline is stopped
// and waited for so nothing keeps mutating cloud resources unreported.
func settle(fm Model, cancel context.CancelFunc, done <-chan error) error {
	if fm.Err != nil || fm.Done {
		// The pipeline settled before the program exited; done already
		// holds its result.
		return <-done
	}

	cancel()
	if err := <-done; err != nil {
		return fmt.Errorf("dashboard closed before the run finished: %w", err)
	}
	return nil
}

// teaObserver forwards pipeline events into a running Bubble Tea
// program.
type teaObserver struct {
	send func(tea.Msg)
}

// NewObserver creates an observer that feeds the dashboard.
func NewObserver(send func(tea.Msg)) provisioning.Observer {
	return &teaObserver{send: send}
}

// Printf implements the Logger surface. Plain log lines have no place
// on the dashboard.
func (o *teaObserver) Printf(string, ...interface{}) {}

// Event implements Observer.
func (o *teaObserver) Event(ev provisioning.Event) {
	switch ev.Type {
	case provisioning.EventStepStarted:
		o.send(StepStartedMsg{Name: ev.Step})
	case provisioning.EventStepCreated:
		o.send(StepFinishedMsg{Name: ev.Step, Outcome: provisioning.OutcomeCreated})
	case provisioning.EventStepExists:
		o.send(StepFinishedMsg{Name: ev.Step, Outcome: provisioning.OutcomeAlreadyExisted})
	case provisioning.EventStepSkipped:
		o.send(StepFinishedMsg{Name: ev.Step, Outcome: provisioning.OutcomeSkipped})
	case provisioning.EventStepFailed:
		o.send(StepFinishedMsg{Name: ev.Step, Outcome: provisioning.OutcomeFailed, Err: errors.New(ev.Message)})
	case provisioning.EventWarning:
		o.send(WarningMsg{Text: ev.Message})
	}
}

// Progress implements Observer.
func (o *teaObserver) Progress(string, int, int) {}

// WithFields implements Observer.
func (o *teaObserver) WithFields(map[string]string) provisioning.Observer { return o }
