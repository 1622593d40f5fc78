// Package provisioning sequences idempotent steps into pipelines.
//
// A Step is one unit of provisioning work with an existence check and an
// apply action. The pipeline runner skips apply for resources that
// already exist, gates destructive steps behind operator confirmation,
// and converts per-step failures into results instead of aborting the
// process; only the runner decides whether a failure stops the pipeline.
package provisioning

import (
	"errors"
	"time"
)

// ErrSkipped is returned by a step's Apply to report that the step had
// nothing to do in this configuration (e.g. no budget amount set).
var ErrSkipped = errors.New("step skipped")

// Outcome classifies a finished step.
type Outcome string

const (
	// OutcomeCreated means apply ran and created the resource.
	OutcomeCreated Outcome = "created"
	// OutcomeAlreadyExisted means the existence check was positive and
	// apply was not invoked.
	OutcomeAlreadyExisted Outcome = "already-existed"
	// OutcomeSkipped means the step did not apply to this configuration.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means apply ran and failed, or confirmation was
	// rejected.
	OutcomeFailed Outcome = "failed"
)

// StepResult is the immutable record of one attempted step.
type StepResult struct {
	Step     string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the step ended in a non-failure outcome.
func (r StepResult) Succeeded() bool {
	return r.Outcome != OutcomeFailed
}

// Step is one idempotent unit of provisioning work.
type Step interface {
	// Name identifies the step in reports and logs.
	Name() string

	// Destructive marks steps that must pass the confirmation gate
	// before Apply.
	Destructive() bool

	// Exists is a side-effect-free query: true means the resource is
	// already in place and Apply will not be invoked.
	Exists(ctx *Context) (bool, error)

	// Apply performs the provisioning work. It must be safe to skip
	// whenever Exists reported true.
	Apply(ctx *Context) error
}

// FuncStep builds a Step from closures. Steps with no meaningful
// existence check leave ExistsFn nil, which always applies.
type FuncStep struct {
	StepName    string
	IsDestr     bool
	ExistsFn    func(ctx *Context) (bool, error)
	ApplyFn     func(ctx *Context) error
	ConfirmWith string // literal confirmation string, when required
}

// Name implements Step.
func (s *FuncStep) Name() string { return s.StepName }

// Destructive implements Step.
func (s *FuncStep) Destructive() bool { return s.IsDestr }

// Exists implements Step.
func (s *FuncStep) Exists(ctx *Context) (bool, error) {
	if s.ExistsFn == nil {
		return false, nil
	}
	return s.ExistsFn(ctx)
}

// Apply implements Step.
func (s *FuncStep) Apply(ctx *Context) error {
	return s.ApplyFn(ctx)
}

// RequiredLiteral returns the literal string the confirmation gate must
// collect before this step runs, or empty when a yes/no answer suffices.
func (s *FuncStep) RequiredLiteral() string { return s.ConfirmWith }

// literalConfirmer is implemented by steps whose confirmation demands a
// typed literal instead of yes/no.
type literalConfirmer interface {
	RequiredLiteral() string
}
