package pipeline

import (
	"time"

	"github.com/nao1215/riskscope/internal/model"
)

// Outcome is the result of routing one input through analysis, decision
// and the post-decision steps.
type Outcome struct {
	// Decision is the finalized decision. Steps must not modify it.
	Decision model.Decision `json:"decision"`

	// EventID is the storage id assigned by the store step, 0 if not stored.
	EventID int64 `json:"event_id,omitempty"`

	// Notified reports whether the decision was handed to the notification queue.
	Notified bool `json:"notified,omitempty"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// StepErrors holds "step: message" for every failed step.
	StepErrors []string `json:"step_errors,omitempty"`

	// TimedOut is set when the context ended before all steps ran.
	TimedOut bool `json:"timed_out,omitempty"`

	// Elapsed is the wall time from routing to the last step.
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
}

// NewOutcome creates an Outcome for d.
func NewOutcome(d model.Decision) *Outcome {
	return &Outcome{Decision: d}
}

// Failed reports whether any step failed.
func (o *Outcome) Failed() bool {
	return len(o.StepErrors) > 0
}
