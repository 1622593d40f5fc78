package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/ui/benchmarks"
)

// StepState tracks one pipeline step for display.
type StepState struct {
	Name     string
	Active   bool
	Finished bool
	Outcome  provisioning.Outcome
	Err      error

	startedAt time.Time
	Duration  time.Duration
}

// Model is the Bubble Tea model for the pipeline dashboard.
type Model struct {
	Title       string
	Environment string

	Steps    []StepState
	Warnings []string

	// ETA
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewModel creates a dashboard model for a pipeline with known steps.
func NewModel(title, environment string, stepNames []string) Model {
	steps := make([]StepState, len(stepNames))
	for i, name := range stepNames {
		steps[i] = StepState{Name: name}
	}
	return Model{
		Title:            title,
		Environment:      environment,
		Steps:            steps,
		StartTime:        time.Now(),
		PerformanceScale: 1.0,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StepStartedMsg:
		m.markStarted(msg.Name)

	case StepFinishedMsg:
		m.markFinished(msg)

	case WarningMsg:
		m.Warnings = append(m.Warnings, msg.Text)

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) markStarted(name string) {
	for i := range m.Steps {
		if m.Steps[i].Name == name {
			m.Steps[i].Active = true
			m.Steps[i].startedAt = time.Now()
			return
		}
	}
	// steps discovered at runtime still show up
	m.Steps = append(m.Steps, StepState{Name: name, Active: true, startedAt: time.Now()})
}

func (m *Model) markFinished(msg StepFinishedMsg) {
	for i := range m.Steps {
		if m.Steps[i].Name != msg.Name {
			continue
		}
		m.Steps[i].Active = false
		m.Steps[i].Finished = true
		m.Steps[i].Outcome = msg.Outcome
		m.Steps[i].Err = msg.Err
		if !m.Steps[i].startedAt.IsZero() {
			m.Steps[i].Duration = time.Since(m.Steps[i].startedAt)
		}
		return
	}
}

// FinishedCount returns how many steps reached a terminal outcome.
func (m Model) FinishedCount() int {
	n := 0
	for _, s := range m.Steps {
		if s.Finished {
			n++
		}
	}
	return n
}

func (m *Model) updateETA() {
	current := ""
	var elapsed time.Duration
	var pendingSteps []string
	var history []benchmarks.StepRecord

	for _, s := range m.Steps {
		switch {
		case s.Active:
			current = s.Name
			elapsed = time.Since(s.startedAt)
		case s.Finished:
			history = append(history, benchmarks.StepRecord{Name: s.Name, Duration: s.Duration})
		default:
			pendingSteps = append(pendingSteps, s.Name)
		}
	}

	m.PerformanceScale = benchmarks.PerformanceScale(current, elapsed, history)
	m.EstimatedRemaining = benchmarks.EstimateRemaining(current, elapsed, pendingSteps, history)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
