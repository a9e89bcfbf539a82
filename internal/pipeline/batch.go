package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the default number of inputs routed at once.
const DefaultConcurrency = 10

// RouteFunc routes one raw tagged input to an outcome.
type RouteFunc func(ctx context.Context, raw []byte) (*Outcome, error)

// BatchResult is the result of routing one input of a batch.
type BatchResult struct {
	// Index is the position of the input in the batch.
	Index int

	// Outcome is nil when routing failed.
	Outcome *Outcome

	// Err is the routing error, such as an unknown input type.
	Err error
}

// BatchProcessor routes many inputs concurrently.
//
// Design decision: Batch routing is kept apart from Pipeline so that the
// pipeline stays focused on a single decision. Routing errors of one input
// are reported in its BatchResult and never cancel the rest of the batch.
type BatchProcessor struct {
	route       RouteFunc
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of inputs routed at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that routes each input with route.
func NewBatchProcessor(route RouteFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{route: route, concurrency: DefaultConcurrency, logger: slog.Default()}
	for _, opt := range opts {
		opt(bp)
	}
	return bp
}

// ProcessBatch routes all inputs and returns one result per input, in input
// order. The error is non-nil only when ctx ended before every input was
// routed; inputs skipped because of it carry the context error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, inputs [][]byte) ([]BatchResult, error) {
	results := make([]BatchResult, len(inputs))
	err := bp.ProcessBatchWithCallback(ctx, inputs, func(r BatchResult) {
		results[r.Index] = r
	})
	return results, err
}

// ProcessBatchWithCallback routes all inputs and calls callback once per
// input as it completes, from the routing goroutine. The callback must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, inputs [][]byte, callback func(BatchResult)) error {
	logger := bp.logger.With("total_inputs", len(inputs))
	logger.Info("routing batch", "concurrency", bp.concurrency)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, raw := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				callback(BatchResult{Index: i, Err: err})
				return err
			}

			outcome, err := bp.route(gctx, raw)
			if err != nil {
				logger.Warn("input not routed", "index", i, "error", err)
			}
			callback(BatchResult{Index: i, Outcome: outcome, Err: err})
			return nil
		})
	}

	err := g.Wait()
	logger.Info("batch routed", "elapsed", time.Since(start))
	return err
}
