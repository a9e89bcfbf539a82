package pipeline

import (
	"context"
	"log/slog"
)

// Step is one consumer of a finished decision: storing it, remembering it,
// counting it or notifying about it.
//
// Design decision: Step is an interface rather than a function type so that
// each step can hold its collaborator and report a stable Name for logs and
// for Outcome.PerformedSteps.
type Step interface {
	// Do handles the outcome. A returned error is recorded in the outcome.
	Do(ctx context.Context, outcome *Outcome) error

	// Name identifies the step in logs and outcomes.
	Name() string
}

// Pipeline hands a decision to its steps one after another.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// keepGoing runs the remaining steps after a failure.
	keepGoing bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError makes one failing step not stop the others.
// Failures land in Outcome.StepErrors either way.
func WithContinueOnError(keepGoing bool) Option {
	return func(p *Pipeline) {
		p.keepGoing = keepGoing
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	for _, s := range steps {
		p.AddStep(s)
	}
}

// Execute runs the steps against outcome.
//
// The context is checked between steps only; a running step must watch ctx
// itself. On cancellation outcome.TimedOut is set and ctx.Err() returned.
// Otherwise the first step error is returned unless the pipeline continues
// on error, in which case Execute returns nil.
func (p *Pipeline) Execute(ctx context.Context, outcome *Outcome) error {
	logger := p.logger.With("request_id", outcome.Decision.RequestID)

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("post-decision steps cut short", "next_step", step.Name(), "reason", err)
			outcome.TimedOut = true
			return err
		}

		err := p.run(ctx, logger, step, outcome)
		outcome.PerformedSteps = append(outcome.PerformedSteps, step.Name())
		if err != nil && !p.keepGoing {
			return err
		}
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, step Step, outcome *Outcome) error {
	logger.Debug("running step", "step", step.Name(), "kind", outcome.Decision.Kind)

	err := step.Do(ctx, outcome)
	if err != nil {
		logger.Error("step failed", "step", step.Name(), "error", err)
		outcome.StepErrors = append(outcome.StepErrors, step.Name()+": "+err.Error())
	}
	return err
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
