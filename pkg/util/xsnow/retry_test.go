package xsnow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
)

// recordingObserver 记录跨度参数与结果
type recordingObserver struct {
	mu      sync.Mutex
	opts    []xmetrics.SpanOptions
	results []xmetrics.Result
}

func (o *recordingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	o.mu.Lock()
	o.opts = append(o.opts, opts)
	o.mu.Unlock()
	return ctx, recordingSpan{o: o}
}

type recordingSpan struct{ o *recordingObserver }

func (s recordingSpan) End(r xmetrics.Result) {
	s.o.mu.Lock()
	s.o.results = append(s.o.results, r)
	s.o.mu.Unlock()
}

// newRegressedGenerator 返回一个已在 base 发过号、当前时钟回拨到 base-10 的生成器
func newRegressedGenerator(t *testing.T, opts ...Option) (*Generator, *manualClock) {
	t.Helper()
	const base = Epoch + 10_000
	clk := newManualClock(base)
	g, err := New(4, 5, append([]Option{WithClock(clk)}, opts...)...)
	require.NoError(t, err)
	_, err = g.NextID()
	require.NoError(t, err)
	clk.Set(base - 10)
	return g, clk
}

func TestNextIDWithRetry_FastPath(t *testing.T) {
	obs := &recordingObserver{}
	g, err := New(1, 2, WithObserver(obs))
	require.NoError(t, err)

	id, err := g.NextIDWithRetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Components().DatacenterID)

	require.Len(t, obs.opts, 1)
	assert.Equal(t, "xsnow", obs.opts[0].Component)
	assert.Equal(t, "next_id", obs.opts[0].Operation)
	require.Len(t, obs.results, 1)
	assert.NoError(t, obs.results[0].Err)
}

func TestNextIDWithRetry_RecoversAfterRegression(t *testing.T) {
	g, clk := newRegressedGenerator(t, WithRetryInterval(time.Millisecond), WithMaxWaitDuration(time.Second))

	// 第 3 次读数后时钟追回
	var calls atomic.Int32
	g.clock = ClockFunc(func() int64 {
		if calls.Add(1) > 3 {
			return Epoch + 10_001
		}
		return clk.NowMilli()
	})

	id, err := g.NextIDWithRetry(context.Background())
	require.NoError(t, err)
	c := id.Components()
	assert.Equal(t, int64(10_001), c.Timestamp)
	assert.Equal(t, int64(0), c.Sequence)
	assert.GreaterOrEqual(t, calls.Load(), int32(4))
}

func TestNextIDWithRetry_Timeout(t *testing.T) {
	obs := &recordingObserver{}
	g, _ := newRegressedGenerator(t,
		WithRetryInterval(time.Millisecond),
		WithMaxWaitDuration(20*time.Millisecond),
		WithObserver(obs),
	)

	start := time.Now()
	_, err := g.NextIDWithRetry(context.Background())
	require.ErrorIs(t, err, ErrClockBackwardTimeout)
	assert.ErrorIs(t, err, ErrClockMovedBackwards)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	var cerr *ClockMovedBackwardsError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, int64(10), cerr.Behind())

	require.Len(t, obs.results, 1)
	assert.ErrorIs(t, obs.results[0].Err, ErrClockBackwardTimeout)
}

func TestNextIDWithRetry_ZeroMaxWait(t *testing.T) {
	g, _ := newRegressedGenerator(t, WithMaxWaitDuration(0))

	_, err := g.NextIDWithRetry(context.Background())
	assert.ErrorIs(t, err, ErrClockBackwardTimeout)
	assert.ErrorIs(t, err, ErrClockMovedBackwards)
}

func TestNextIDWithRetry_ContextCancelledDuringWait(t *testing.T) {
	g, _ := newRegressedGenerator(t, WithRetryInterval(time.Millisecond), WithMaxWaitDuration(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	_, err := g.NextIDWithRetry(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrClockBackwardTimeout)
}

func TestNextIDWithRetry_Preconditions(t *testing.T) {
	g, err := New(0, 0)
	require.NoError(t, err)

	t.Run("nil context", func(t *testing.T) {
		var nilCtx context.Context
		_, err := g.NextIDWithRetry(nilCtx)
		assert.ErrorIs(t, err, ErrNilContext)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.NextIDWithRetry(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil generator", func(t *testing.T) {
		var nilGen *Generator
		_, err := nilGen.NextIDWithRetry(context.Background())
		assert.ErrorIs(t, err, ErrNilGenerator)
	})
}

func TestNextIDWithRetry_NonClockErrorNotRetried(t *testing.T) {
	var reads atomic.Int32
	clk := ClockFunc(func() int64 {
		reads.Add(1)
		return Epoch - 1
	})
	g, err := New(0, 0, WithClock(clk))
	require.NoError(t, err)

	_, err = g.NextIDWithRetry(context.Background())
	assert.ErrorIs(t, err, ErrTimeOverflow)
	assert.False(t, errors.Is(err, ErrClockBackwardTimeout))
	assert.Equal(t, int32(1), reads.Load())
}
