package provisioning

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/confirm"
)

// Policy decides what happens after a step fails.
type Policy string

const (
	// PolicyHalt stops at the first failed step.
	PolicyHalt Policy = "halt"
	// PolicyContinue attempts the remaining steps.
	PolicyContinue Policy = "continue"
	// PolicyAsk consults the confirmation gate per failure. The gate's
	// forced mode resolves this to continue without prompting.
	PolicyAsk Policy = "ask"
)

// PolicyFromConfig maps the configured failure policy onto a runner
// policy. An explicit on_failure value applies as written. When unset,
// interactive runs are asked per failure and forced runs keep going,
// degrading the final report instead of halting.
func PolicyFromConfig(p config.FailurePolicy, forced bool) Policy {
	switch p {
	case config.FailureHalt:
		return PolicyHalt
	case config.FailureContinue:
		return PolicyContinue
	}
	if forced {
		return PolicyContinue
	}
	return PolicyAsk
}

// Pipeline is an ordered sequence of steps. Order encodes the
// dependency chain (project before APIs before service accounts);
// reordering requires re-validating those dependencies.
type Pipeline struct {
	Name   string
	Steps  []Step
	Policy Policy
}

// Report is the read-only outcome of a single pipeline run. Results
// holds one entry per attempted step; steps never attempted because of
// an early abort do not appear.
type Report struct {
	Completed int
	Total     int
	Results   []StepResult
	Aborted   bool
}

// Failed returns the results of failed steps.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns a PipelineError when any step failed, nil otherwise.
func (r *Report) Err() error {
	if len(r.Failed()) == 0 {
		return nil
	}
	return &PipelineError{Report: r}
}

// PipelineError reports a run where some steps failed. The embedded
// report lists which steps need manual follow-up.
type PipelineError struct {
	Report *Report
}

func (e *PipelineError) Error() string {
	failed := e.Report.Failed()
	names := make([]string, len(failed))
	for i, res := range failed {
		names[i] = res.Step
	}
	return fmt.Sprintf("pipeline completed %d/%d steps; failed: %s",
		e.Report.Completed, e.Report.Total, strings.Join(names, ", "))
}

// Unwrap exposes the individual step errors, so callers can match on
// sentinels like confirm.ErrUserCancelled.
func (e *PipelineError) Unwrap() []error {
	failed := e.Report.Failed()
	errs := make([]error, 0, len(failed))
	for _, res := range failed {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errs
}

// Run executes the pipeline's steps in order and returns the report.
// The returned error is the report's Err; the report itself is always
// valid, including after an abort.
//
// Run is the only place that advances the completed counter.
func Run(ctx *Context, p Pipeline) (*Report, error) {
	report := &Report{Total: len(p.Steps)}

	ctx.Observer.Event(Event{
		Type:    EventPipelineStarted,
		Message: fmt.Sprintf("%s: %d steps", p.Name, len(p.Steps)),
	})

	for i, step := range p.Steps {
		label := step.Name()
		position := map[string]string{"position": fmt.Sprintf("%d/%d", i+1, len(p.Steps))}
		ctx.Observer.Event(Event{Type: EventStepStarted, Step: label, Message: "starting", Fields: position})

		result := runStep(ctx, step)
		report.Results = append(report.Results, result)

		switch result.Outcome {
		case OutcomeFailed:
			ctx.Observer.Event(Event{
				Type:    EventStepFailed,
				Step:    label,
				Message: fmt.Sprintf("failed: %v", result.Err),
			})
			if abort := handleFailure(ctx, p.Policy, result); abort {
				report.Aborted = true
				ctx.Observer.Event(Event{
					Type:    EventPipelineFailed,
					Message: fmt.Sprintf("%s aborted after %q", p.Name, step.Name()),
				})
				return report, report.Err()
			}
		case OutcomeAlreadyExisted:
			report.Completed++
			ctx.Observer.Event(Event{Type: EventStepExists, Step: label, Message: "already exists"})
		case OutcomeSkipped:
			ctx.Observer.Event(Event{Type: EventStepSkipped, Step: label, Message: "nothing to do"})
		default:
			report.Completed++
			ctx.Observer.Event(Event{
				Type:    EventStepCreated,
				Step:    label,
				Message: fmt.Sprintf("done in %v", result.Duration.Round(time.Millisecond)),
			})
		}
	}

	if err := report.Err(); err != nil {
		ctx.Observer.Event(Event{Type: EventPipelineFailed, Message: err.Error()})
		return report, err
	}

	ctx.Observer.Event(Event{
		Type:    EventPipelineCompleted,
		Message: fmt.Sprintf("%s: %d/%d steps", p.Name, report.Completed, report.Total),
	})
	return report, nil
}

// runStep executes one step and converts every failure into a result.
func runStep(ctx *Context, step Step) StepResult {
	start := time.Now()
	result := StepResult{Step: step.Name()}

	exists, err := step.Exists(ctx)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("existence check: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	if exists {
		result.Outcome = OutcomeAlreadyExisted
		result.Duration = time.Since(start)
		return result
	}

	if step.Destructive() {
		decision, err := ctx.Gate.Confirm(ctx, confirmRequest(step))
		if err != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("confirmation: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		if !decision.Approved {
			result.Outcome = OutcomeFailed
			result.Err = confirm.ErrUserCancelled
			result.Duration = time.Since(start)
			return result
		}
	}

	if err := step.Apply(ctx); err != nil {
		if errors.Is(err, ErrSkipped) {
			result.Outcome = OutcomeSkipped
		} else {
			result.Outcome = OutcomeFailed
			result.Err = err
		}
		result.Duration = time.Since(start)
		return result
	}

	result.Outcome = OutcomeCreated
	result.Duration = time.Since(start)
	return result
}

// handleFailure reports whether the pipeline must abort.
func handleFailure(ctx *Context, policy Policy, result StepResult) bool {
	// A rejected confirmation always aborts: the operator said no.
	if errors.Is(result.Err, confirm.ErrUserCancelled) {
		return true
	}

	switch policy {
	case PolicyContinue:
		return false
	case PolicyAsk:
		decision, err := ctx.Gate.Confirm(ctx, confirm.Request{
			Title:       fmt.Sprintf("Step %q failed", result.Step),
			Description: fmt.Sprintf("%v\nContinue with the remaining steps?", result.Err),
		})
		if err != nil {
			return true
		}
		return !decision.Approved
	default:
		return true
	}
}

func confirmRequest(step Step) confirm.Request {
	req := confirm.Request{
		Title:       fmt.Sprintf("Run destructive step %q?", step.Name()),
		Description: "This action cannot be undone.",
	}
	if lc, ok := step.(literalConfirmer); ok {
		req.RequireLiteral = lc.RequiredLiteral()
	}
	return req
}
