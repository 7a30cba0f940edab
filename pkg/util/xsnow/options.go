package xsnow

import (
	"time"

	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
)

// =============================================================================
// 配置
// =============================================================================

const (
	// DefaultSpinInterval 序列号耗尽时轮询时钟的间隔。
	DefaultSpinInterval = 50 * time.Microsecond

	// DefaultMaxWaitDuration NextIDWithRetry 等待时钟追回的上限。
	// NTP 步进回拨通常在几百毫秒以内。
	DefaultMaxWaitDuration = 500 * time.Millisecond

	// DefaultRetryInterval NextIDWithRetry 的重试间隔。
	DefaultRetryInterval = time.Millisecond
)

type options struct {
	clock            Clock
	spinInterval     time.Duration
	spinIntervalSet  bool
	maxWaitDuration  time.Duration
	maxWaitSet       bool // 区分"未传入"与"显式传入 0"
	retryInterval    time.Duration
	retryIntervalSet bool
	observer         xmetrics.Observer
}

// Option 配置选项函数
type Option func(*options)

// WithClock 替换时钟源，主要用于测试。nil 表示使用系统时钟。
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithSpinInterval 设置同一毫秒序列号耗尽后轮询时钟的休眠间隔。
//
// 传入 0 表示只让出调度（runtime.Gosched），负值在 New 中返回 [ErrInvalidConfig]。
func WithSpinInterval(d time.Duration) Option {
	return func(o *options) {
		o.spinInterval = d
		o.spinIntervalSet = true
	}
}

// WithMaxWaitDuration 设置 NextIDWithRetry 遇到时钟回拨时的最大等待时间。
//
// 传入 0 表示不等待：首次回拨即返回 [ErrClockBackwardTimeout]。
func WithMaxWaitDuration(d time.Duration) Option {
	return func(o *options) {
		o.maxWaitDuration = d
		o.maxWaitSet = true
	}
}

// WithRetryInterval 设置 NextIDWithRetry 的重试间隔。
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		o.retryInterval = d
		o.retryIntervalSet = true
	}
}

// WithObserver 设置观测器，NextIDWithRetry 每次调用记录一个跨度。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}
