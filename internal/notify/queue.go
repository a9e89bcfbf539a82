package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/riskscope/internal/model"
)

const (
	// DefaultWorkers is the number of delivery goroutines.
	DefaultWorkers = 2

	// DefaultQueueSize is the buffered channel capacity.
	DefaultQueueSize = 100
)

// Observer records delivery outcomes.
type Observer interface {
	ObserveNotification(channel string, err error)
	ObserveDropped()
}

type nopObserver struct{}

func (nopObserver) ObserveNotification(string, error) {}
func (nopObserver) ObserveDropped()                   {}

// Queue delivers decisions to every notifier on a fixed pool of workers.
type Queue struct {
	notifiers []Notifier
	workers   int
	size      int
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer

	mu     sync.RWMutex
	ch     chan model.Decision
	closed bool
	wg     sync.WaitGroup
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the number of workers.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithQueueSize sets the buffer capacity.
func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithDeliveryTimeout bounds each notifier call.
func WithDeliveryTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithQueueLogger sets the logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithObserver sets the delivery observer.
func WithObserver(o Observer) QueueOption {
	return func(q *Queue) {
		if o != nil {
			q.observer = o
		}
	}
}

// NewQueue starts the workers. Call Close to drain and stop them.
func NewQueue(notifiers []Notifier, opts ...QueueOption) *Queue {
	q := &Queue{
		notifiers: notifiers,
		workers:   DefaultWorkers,
		size:      DefaultQueueSize,
		timeout:   DefaultTimeout,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}

	q.ch = make(chan model.Decision, q.size)
	for range q.workers {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Len returns the number of configured notifiers.
func (q *Queue) Len() int {
	return len(q.notifiers)
}

// Enqueue hands d to the workers. It never blocks and returns false when
// the queue is full or closed.
func (q *Queue) Enqueue(d model.Decision) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.ch <- d:
		return true
	default:
		q.observer.ObserveDropped()
		q.logger.Warn("notification queue full, dropping alert",
			"request_id", d.RequestID,
			"kind", d.Kind,
			"capacity", q.size,
		)
		return false
	}
}

// Close stops accepting decisions, delivers the ones already queued and
// waits for the workers to exit. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for d := range q.ch {
		q.deliver(d)
	}
}

func (q *Queue) deliver(d model.Decision) {
	for _, n := range q.notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := n.Notify(ctx, d)
		cancel()

		q.observer.ObserveNotification(n.Name(), err)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, context.DeadlineExceeded) {
				level = slog.LevelError
			}
			q.logger.Log(context.Background(), level, "notification failed",
				"channel", n.Name(),
				"request_id", d.RequestID,
				"error", err,
			)
			continue
		}
		q.logger.Debug("notification sent", "channel", n.Name(), "request_id", d.RequestID)
	}
}
