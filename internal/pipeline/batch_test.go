package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/riskscope/internal/model"
)

var errBadInput = errors.New("bad input")

func echoRoute(_ context.Context, raw []byte) (*Outcome, error) {
	if string(raw) == "bad" {
		return nil, errBadInput
	}
	d := testDecision(model.ActionLog)
	d.InputRef = string(raw)
	return NewOutcome(d), nil
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(echoRoute)
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(echoRoute, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch routing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order and per-input errors", func(t *testing.T) {
		t.Parallel()

		inputs := [][]byte{[]byte("a"), []byte("bad"), []byte("c")}
		results, err := NewBatchProcessor(echoRoute, WithConcurrency(2)).ProcessBatch(context.Background(), inputs)
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if results[0].Outcome.Decision.InputRef != "a" || results[2].Outcome.Decision.InputRef != "c" {
			t.Errorf("results out of order: %+v", results)
		}
		if !errors.Is(results[1].Err, errBadInput) || results[1].Outcome != nil {
			t.Errorf("results[1] = %+v", results[1])
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		route := func(ctx context.Context, raw []byte) (*Outcome, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return echoRoute(ctx, raw)
		}

		inputs := make([][]byte, 20)
		for i := range inputs {
			inputs[i] = []byte("x")
		}
		if _, err := NewBatchProcessor(route, WithConcurrency(3)).ProcessBatch(context.Background(), inputs); err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if peak.Load() > 3 {
			t.Errorf("peak concurrency = %d, want <= 3", peak.Load())
		}
	})

	t.Run("returns context error when cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := NewBatchProcessor(echoRoute).ProcessBatch(ctx, [][]byte{[]byte("a")})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ProcessBatch() error = %v, want context.Canceled", err)
		}
		if len(results) != 1 || results[0].Outcome != nil {
			t.Errorf("results = %+v", results)
		}
	})
}

// TestBatchProcessorCallback tests streaming results through a callback.
func TestBatchProcessorCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[int]bool{}

	err := NewBatchProcessor(echoRoute).ProcessBatchWithCallback(context.Background(),
		[][]byte{[]byte("a"), []byte("b")},
		func(r BatchResult) {
			mu.Lock()
			defer mu.Unlock()
			seen[r.Index] = true
		})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback() error = %v", err)
	}
	if !seen[0] || !seen[1] {
		t.Errorf("seen = %v", seen)
	}
}
