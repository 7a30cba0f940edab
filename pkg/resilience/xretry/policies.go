package xretry

import "context"

// FixedRetryPolicy 固定次数重试
type FixedRetryPolicy struct {
	maxAttempts int
}

// NewFixedRetry maxAttempts 包含首次尝试，最小为 1。
func NewFixedRetry(maxAttempts int) *FixedRetryPolicy {
	return &FixedRetryPolicy{maxAttempts: max(maxAttempts, 1)}
}

func (p *FixedRetryPolicy) MaxAttempts() int { return p.maxAttempts }

func (p *FixedRetryPolicy) ShouldRetry(ctx context.Context, attempt int, err error) bool {
	if ctx.Err() != nil || attempt >= p.maxAttempts {
		return false
	}
	return IsRetryable(err)
}

// AlwaysRetryPolicy 不限次数，直到 ctx 结束或遇到永久性错误
type AlwaysRetryPolicy struct{}

// NewAlwaysRetry 创建不限次数的重试策略。
func NewAlwaysRetry() *AlwaysRetryPolicy { return &AlwaysRetryPolicy{} }

func (*AlwaysRetryPolicy) MaxAttempts() int { return 0 }

func (*AlwaysRetryPolicy) ShouldRetry(ctx context.Context, _ int, err error) bool {
	return ctx.Err() == nil && IsRetryable(err)
}

// NeverRetryPolicy 只执行一次
type NeverRetryPolicy struct{}

// NewNeverRetry 创建永不重试策略。
func NewNeverRetry() *NeverRetryPolicy { return &NeverRetryPolicy{} }

func (*NeverRetryPolicy) MaxAttempts() int { return 1 }
func (*NeverRetryPolicy) ShouldRetry(context.Context, int, error) bool { return false }

// PredicateRetryPolicy 只重试谓词返回 true 的错误
type PredicateRetryPolicy struct {
	maxAttempts int
	retryIf     func(error) bool
}

// NewPredicateRetry maxAttempts <= 0 表示不限次数；retryIf 为 nil 时退化为 IsRetryable。
func NewPredicateRetry(maxAttempts int, retryIf func(error) bool) *PredicateRetryPolicy {
	if retryIf == nil {
		retryIf = IsRetryable
	}
	return &PredicateRetryPolicy{maxAttempts: max(maxAttempts, 0), retryIf: retryIf}
}

func (p *PredicateRetryPolicy) MaxAttempts() int { return p.maxAttempts }

func (p *PredicateRetryPolicy) ShouldRetry(ctx context.Context, attempt int, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if p.maxAttempts > 0 && attempt >= p.maxAttempts {
		return false
	}
	return p.retryIf(err)
}

var (
	_ RetryPolicy = (*FixedRetryPolicy)(nil)
	_ RetryPolicy = (*AlwaysRetryPolicy)(nil)
	_ RetryPolicy = (*NeverRetryPolicy)(nil)
	_ RetryPolicy = (*PredicateRetryPolicy)(nil)
)
