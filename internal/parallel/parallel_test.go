package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parallelConfig() Config {
	return Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}
}

func TestFor(t *testing.T) {
	var counter int64
	n := 1000
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, parallelConfig())
	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, Config{Enabled: false})
	assert.Equal(t, int64(100), counter)
}

func TestForRangeCoversDisjointChunks(t *testing.T) {
	n := 103
	seen := make([]int32, n)
	var mu sync.Mutex
	var calls int
	ForRange(n, func(lo, hi int) {
		mu.Lock()
		calls++
		mu.Unlock()
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	}, parallelConfig())

	for i, c := range seen {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
	assert.Equal(t, 4, calls)
}

func TestForRange_SmallStaysSequential(t *testing.T) {
	var calls int
	ForRange(15, func(lo, hi int) {
		calls++
		assert.Equal(t, 0, lo)
		assert.Equal(t, 15, hi)
	}, parallelConfig())
	assert.Equal(t, 1, calls)

	ForRange(0, func(_, _ int) { t.Fatal("called for empty range") }, parallelConfig())
}

func TestSequentialConfig(t *testing.T) {
	var calls int
	ForRange(1<<16, func(_, _ int) { calls++ }, Sequential())
	assert.Equal(t, 1, calls)
}

func TestForRangeErr(t *testing.T) {
	boom := errors.New("boom")
	err := ForRangeErr(context.Background(), 100, func(_ context.Context, lo, _ int) error {
		if lo == 0 {
			return boom
		}
		return nil
	}, parallelConfig())
	assert.ErrorIs(t, err, boom)

	var total atomic.Int64
	require.NoError(t, ForRangeErr(context.Background(), 100, func(_ context.Context, lo, hi int) error {
		total.Add(int64(hi - lo))
		return nil
	}, parallelConfig()))
	assert.Equal(t, int64(100), total.Load())
}

func TestForRangeErrCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ForRangeErr(ctx, 10, func(context.Context, int, int) error { return nil }, Sequential())
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 1 << 16

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
