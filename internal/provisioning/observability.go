package provisioning

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the minimal logging surface steps use directly.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines structured observability for pipeline runs.
type Observer interface {
	Logger

	// Event emits a structured event.
	Event(event Event)

	// Progress reports progress within a long-running step.
	Progress(step string, current, total int)

	// WithFields returns a new Observer with additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event represents a structured pipeline event.
type Event struct {
	Type      EventType
	Step      string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType classifies pipeline events.
type EventType string

const (
	// EventPipelineStarted indicates a pipeline run has started.
	EventPipelineStarted EventType = "pipeline.started"
	// EventPipelineCompleted indicates a pipeline run finished with all
	// attempted steps succeeding.
	EventPipelineCompleted EventType = "pipeline.completed"
	// EventPipelineFailed indicates a pipeline run ended with failures.
	EventPipelineFailed EventType = "pipeline.failed"

	// EventStepStarted indicates a step began.
	EventStepStarted EventType = "step.started"
	// EventStepCreated indicates a step applied and created its resource.
	EventStepCreated EventType = "step.created"
	// EventStepExists indicates the resource already existed.
	EventStepExists EventType = "step.exists"
	// EventStepSkipped indicates the step had nothing to do.
	EventStepSkipped EventType = "step.skipped"
	// EventStepFailed indicates the step failed.
	EventStepFailed EventType = "step.failed"

	// EventWarning indicates a non-fatal condition needing follow-up.
	EventWarning EventType = "warning"
	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// ConsoleObserver implements Observer on the standard log package.
type ConsoleObserver struct {
	contextFields map[string]string
}

// NewConsoleObserver creates a console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{contextFields: make(map[string]string)}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range o.contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}

	log.Print(o.formatEvent(event))
}

// Progress implements Observer.
func (o *ConsoleObserver) Progress(step string, current, total int) {
	if total == 0 {
		log.Printf("[%s] progress: %d", step, current)
		return
	}
	log.Printf("[%s] progress: %d/%d", step, current, total)
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &ConsoleObserver{contextFields: newFields}
}

func (o *ConsoleObserver) formatEvent(event Event) string {
	var parts []string

	parts = append(parts, string(event.Type))
	if event.Step != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Step))
	}
	parts = append(parts, event.Message)

	if len(event.Fields) > 0 {
		var fieldParts []string
		for k, v := range event.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}
