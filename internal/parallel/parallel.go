// Package parallel splits element loops across goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096, // Element kernels are cheap; keep chunks large.
	}
}

// Sequential returns a config that always runs on the calling goroutine.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

// chunks returns the chunk length for n elements, or n when the work should
// stay on the calling goroutine.
func (c Config) chunks(n int) int {
	if !c.Enabled || c.NumWorkers < 2 || n < 2*max(c.MinChunkSize, 1) {
		return n
	}
	return max((n+c.NumWorkers-1)/c.NumWorkers, c.MinChunkSize)
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForRange(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f(i)
		}
	}, cfg)
}

// ForRange executes f over disjoint [lo, hi) ranges covering [0, n).
// Kernels use it to run a tight loop per chunk instead of a call per element.
func ForRange(n int, f func(lo, hi int), cfg Config) {
	if n <= 0 {
		return
	}
	size := cfg.chunks(n)
	if size >= n {
		f(0, n)
		return
	}
	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			f(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// ForRangeErr is ForRange for chunk functions that can fail or be cancelled.
// The first error cancels ctx for the remaining chunks and is returned.
func ForRangeErr(ctx context.Context, n int, f func(ctx context.Context, lo, hi int) error, cfg Config) error {
	if n <= 0 {
		return ctx.Err()
	}
	size := cfg.chunks(n)
	if size >= n {
		if err := ctx.Err(); err != nil {
			return err
		}
		return f(ctx, 0, n)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.NumWorkers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return f(ctx, lo, hi)
		})
	}
	return g.Wait()
}
