package xretry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicies(t *testing.T) {
	ctx := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("fixed", func(t *testing.T) {
		p := NewFixedRetry(3)
		assert.Equal(t, 3, p.MaxAttempts())
		assert.True(t, p.ShouldRetry(ctx, 1, errBoom))
		assert.False(t, p.ShouldRetry(ctx, 3, errBoom))
		assert.False(t, p.ShouldRetry(cancelled, 1, errBoom))
		assert.False(t, p.ShouldRetry(ctx, 1, NewPermanentError(errBoom)))
		assert.Equal(t, 1, NewFixedRetry(0).MaxAttempts())
	})

	t.Run("always", func(t *testing.T) {
		p := NewAlwaysRetry()
		assert.Equal(t, 0, p.MaxAttempts())
		assert.True(t, p.ShouldRetry(ctx, 1000, errBoom))
		assert.False(t, p.ShouldRetry(cancelled, 1, errBoom))
	})

	t.Run("never", func(t *testing.T) {
		p := NewNeverRetry()
		assert.Equal(t, 1, p.MaxAttempts())
		assert.False(t, p.ShouldRetry(ctx, 1, errBoom))
	})

	t.Run("predicate", func(t *testing.T) {
		p := NewPredicateRetry(2, func(err error) bool { return errors.Is(err, errBoom) })
		assert.True(t, p.ShouldRetry(ctx, 1, errBoom))
		assert.False(t, p.ShouldRetry(ctx, 2, errBoom))
		assert.False(t, p.ShouldRetry(ctx, 1, errors.New("x")))
		assert.False(t, p.ShouldRetry(ctx, 1, nil))
		assert.False(t, p.ShouldRetry(cancelled, 1, errBoom))
		// 谓词优先于 PermanentError 标记
		assert.True(t, p.ShouldRetry(ctx, 1, NewPermanentError(errBoom)))
		assert.Equal(t, 0, NewPredicateRetry(-5, nil).MaxAttempts())
	})
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Millisecond, NewFixedBackoff(5*time.Millisecond).NextDelay(9))
	assert.Zero(t, NewFixedBackoff(-time.Second).NextDelay(1))
	assert.Zero(t, NewNoBackoff().NextDelay(3))

	b := NewExponentialBackoff(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(2),
		WithJitter(0),
	)
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, time.Second, b.NextDelay(20))
	assert.Equal(t, time.Second, b.NextDelay(math.MaxInt))

	jittered := NewExponentialBackoff(WithInitialDelay(100*time.Millisecond), WithJitter(0.5))
	for range 50 {
		d := jittered.NextDelay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}

	// maxDelay 不小于 initialDelay
	assert.Equal(t, time.Minute, NewExponentialBackoff(WithInitialDelay(time.Minute), WithMaxDelay(time.Second)).NextDelay(5))
}

func TestErrorClassification(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errBoom))
	assert.False(t, IsRetryable(NewPermanentError(errBoom)))
	assert.True(t, IsRetryable(NewTemporaryError(errBoom)))
	assert.True(t, IsPermanent(NewPermanentError(errBoom)))
	assert.False(t, IsPermanent(nil))
	assert.ErrorIs(t, NewPermanentError(errBoom), errBoom)
	assert.Equal(t, "permanent error", (&PermanentError{}).Error())
	assert.Equal(t, "temporary error", (&TemporaryError{}).Error())
}
