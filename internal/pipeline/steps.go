package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/riskscope/internal/model"
)

// ErrQueueFull is recorded when the notification queue rejected a decision.
var ErrQueueFull = errors.New("notification queue full")

// EventSaver persists decisions and returns their storage id.
type EventSaver interface {
	Save(ctx context.Context, d model.Decision) (int64, error)
}

// Recorder folds decisions into the memory store.
type Recorder interface {
	Record(d model.Decision) error
}

// Enqueuer hands decisions to the notification workers without blocking.
// It returns false when the decision was dropped.
type Enqueuer interface {
	Enqueue(d model.Decision) bool
}

// DecisionObserver records decision metrics.
type DecisionObserver interface {
	ObserveDecision(d model.Decision)
}

// StoreStep saves the decision to the event store.
type StoreStep struct {
	store EventSaver
}

// NewStoreStep creates a StoreStep.
func NewStoreStep(store EventSaver) *StoreStep {
	return &StoreStep{store: store}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do saves the decision and records the event id.
func (s *StoreStep) Do(ctx context.Context, outcome *Outcome) error {
	id, err := s.store.Save(ctx, outcome.Decision)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	outcome.EventID = id
	return nil
}

// MemoryStep records the decision in the memory store.
type MemoryStep struct {
	recorder Recorder
}

// NewMemoryStep creates a MemoryStep.
func NewMemoryStep(recorder Recorder) *MemoryStep {
	return &MemoryStep{recorder: recorder}
}

// Name returns the step name.
func (s *MemoryStep) Name() string {
	return "memory"
}

// Do records the decision.
func (s *MemoryStep) Do(_ context.Context, outcome *Outcome) error {
	if err := s.recorder.Record(outcome.Decision); err != nil {
		return fmt.Errorf("failed to update memory: %w", err)
	}
	return nil
}

// NotifyStep enqueues decisions at or above a minimum action for delivery.
type NotifyStep struct {
	queue     Enqueuer
	minAction model.Action
	logger    *slog.Logger
}

// NotifyStepOption configures a NotifyStep.
type NotifyStepOption func(*NotifyStep)

// WithMinAction sets the lowest action that is notified. Default is alert.
func WithMinAction(a model.Action) NotifyStepOption {
	return func(s *NotifyStep) {
		s.minAction = a
	}
}

// WithNotifyLogger sets a custom logger for the notify step.
func WithNotifyLogger(logger *slog.Logger) NotifyStepOption {
	return func(s *NotifyStep) {
		s.logger = logger
	}
}

// NewNotifyStep creates a NotifyStep.
func NewNotifyStep(queue Enqueuer, opts ...NotifyStepOption) *NotifyStep {
	s := &NotifyStep{
		queue:     queue,
		minAction: model.ActionAlert,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step name.
func (s *NotifyStep) Name() string {
	return "notify"
}

// Do enqueues the decision when its action is high enough.
// Delivery happens asynchronously; only a rejected enqueue is an error.
func (s *NotifyStep) Do(_ context.Context, outcome *Outcome) error {
	d := outcome.Decision
	if d.Action < s.minAction {
		return nil
	}
	if !s.queue.Enqueue(d) {
		return ErrQueueFull
	}
	s.logger.Debug("decision queued for notification", "request_id", d.RequestID, "action", d.Action)
	outcome.Notified = true
	return nil
}

// MetricsStep records the decision in the metrics registry.
type MetricsStep struct {
	observer DecisionObserver
}

// NewMetricsStep creates a MetricsStep.
func NewMetricsStep(observer DecisionObserver) *MetricsStep {
	return &MetricsStep{observer: observer}
}

// Name returns the step name.
func (s *MetricsStep) Name() string {
	return "metrics"
}

// Do observes the decision. It never fails.
func (s *MetricsStep) Do(_ context.Context, outcome *Outcome) error {
	s.observer.ObserveDecision(outcome.Decision)
	return nil
}

// Collaborators are the consumers wired into the default pipeline.
// Nil fields are skipped.
type Collaborators struct {
	Store   EventSaver
	Memory  Recorder
	Notify  Enqueuer
	Metrics DecisionObserver

	// NotifyMinAction is the lowest notified action. Zero value notifies
	// only alerts.
	NotifyMinAction model.Action
}

// DefaultPipeline creates a pipeline with a step for every configured
// collaborator, in the order metrics, store, memory, notify. It continues
// on error.
func DefaultPipeline(c Collaborators, opts ...Option) *Pipeline {
	p := New(append([]Option{WithContinueOnError(true)}, opts...)...)

	if c.Metrics != nil {
		p.AddStep(NewMetricsStep(c.Metrics))
	}
	if c.Store != nil {
		p.AddStep(NewStoreStep(c.Store))
	}
	if c.Memory != nil {
		p.AddStep(NewMemoryStep(c.Memory))
	}
	if c.Notify != nil {
		minAction := c.NotifyMinAction
		if minAction == model.ActionIgnore {
			minAction = model.ActionAlert
		}
		p.AddStep(NewNotifyStep(c.Notify, WithMinAction(minAction), WithNotifyLogger(p.logger)))
	}
	return p
}
