package xretry

import (
	"context"
	"time"
)

// RetryPolicy 判断失败后是否继续重试。
//
// MaxAttempts 映射为 retry-go 的 Attempts 上限（0 表示不限次数，
// 此时必须由 ctx 结束重试）；ShouldRetry 在每次失败后调用，attempt 从 1 开始。
type RetryPolicy interface {
	MaxAttempts() int
	ShouldRetry(ctx context.Context, attempt int, err error) bool
}

// BackoffPolicy 计算第 attempt 次失败后的等待时间，attempt 从 1 开始。
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

// Executor 重试执行器接口，便于调用方在参数中替换实现。
type Executor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
