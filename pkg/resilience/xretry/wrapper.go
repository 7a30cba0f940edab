package xretry

import (
	"context"

	retry "github.com/avast/retry-go/v5"
)

// 镜像 retry-go 的常用选项，调用方无需直接依赖第三方包。
type (
	// Option retry-go 配置选项
	Option = retry.Option
	// DelayContext 延迟计算所需的配置值
	DelayContext = retry.DelayContext
)

var (
	Attempts       = retry.Attempts
	UntilSucceeded = retry.UntilSucceeded
	Delay          = retry.Delay
	MaxJitter      = retry.MaxJitter
	DelayType      = retry.DelayType
	OnRetry        = retry.OnRetry
	RetryIf        = retry.RetryIf
	Context        = retry.Context
	LastErrorOnly  = retry.LastErrorOnly

	// Unrecoverable 标记错误为不可恢复，retry-go 立即停止
	Unrecoverable = retry.Unrecoverable
	// IsRecoverable 检查错误是否未被 Unrecoverable 标记
	IsRecoverable = retry.IsRecoverable
)

// Do 直接使用 retry-go 选项执行 fn。
//
// 默认 RetryIf 尊重 Unrecoverable 与 PermanentError；opts 中的 RetryIf 会覆盖它。
// 注意 retry-go 默认延迟含随机抖动，需要精确零延迟时同时传入 Delay(0) 与 MaxJitter(0)。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	return retry.New(defaultOpts(ctx, opts)...).Do(fn)
}

// DoWithData 是 Do 的带返回值版本。
func DoWithData[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	return retry.NewWithData[T](defaultOpts(ctx, opts)...).Do(fn)
}

func defaultOpts(ctx context.Context, opts []Option) []Option {
	all := make([]Option, 0, len(opts)+2)
	all = append(all, Context(ctx), RetryIf(func(err error) bool {
		return IsRecoverable(err) && IsRetryable(err)
	}))
	return append(all, opts...)
}
