package processor

import (
	"context"
	"runtime"
	"sync"

	"github.com/jbrewster7/coffea/accumulator"
	"golang.org/x/sync/errgroup"
)

// Task processes one chunk. A nil output with a nil error means the chunk
// contributes nothing.
type Task func(ctx context.Context, c Chunk) (accumulator.Accumulatable, error)

// MergeFunc folds two partial outputs. It must not modify its operands.
type MergeFunc func(a, b accumulator.Accumulatable) (accumulator.Accumulatable, error)

// Executor runs a Task over chunks and folds the outputs with merge. It
// returns nil when no chunk produced output.
type Executor interface {
	Execute(ctx context.Context, chunks []Chunk, task Task, merge MergeFunc) (accumulator.Accumulatable, error)
}

// IterativeExecutor runs chunks one after another on the calling goroutine.
type IterativeExecutor struct{}

// Execute implements Executor.
func (IterativeExecutor) Execute(ctx context.Context, chunks []Chunk, task Task, merge MergeFunc) (accumulator.Accumulatable, error) {
	var total accumulator.Accumulatable
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := task(ctx, c)
		if err != nil {
			return nil, err
		}
		if out == nil {
			continue
		}
		if total == nil {
			total = out
			continue
		}
		if total, err = merge(total, out); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// PoolExecutor runs chunks on a bounded pool of goroutines. Outputs are
// folded into the running result as they complete, so the merge order is
// nondeterministic; accumulator merges are order-insensitive.
type PoolExecutor struct {
	workers int
}

// PoolOption configures a PoolExecutor.
type PoolOption func(*PoolExecutor)

// WithWorkers sets the number of concurrent chunks. Default: GOMAXPROCS.
func WithWorkers(n int) PoolOption {
	return func(p *PoolExecutor) {
		p.workers = n
	}
}

// NewPoolExecutor creates a PoolExecutor.
func NewPoolExecutor(optFns ...PoolOption) *PoolExecutor {
	p := &PoolExecutor{}
	for _, fn := range optFns {
		if fn != nil {
			fn(p)
		}
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Workers returns the pool size.
func (p *PoolExecutor) Workers() int { return p.workers }

// Execute implements Executor. The first error cancels the remaining chunks.
func (p *PoolExecutor) Execute(parent context.Context, chunks []Chunk, task Task, merge MergeFunc) (accumulator.Accumulatable, error) {
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(p.workers)

	var (
		mu    sync.Mutex
		total accumulator.Accumulatable
	)
	for _, c := range chunks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := task(ctx, c)
			if err != nil || out == nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if total == nil {
				total = out
				return nil
			}
			total, err = merge(total, out)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Chunks skipped after a cancellation leave no task error behind.
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return total, nil
}
