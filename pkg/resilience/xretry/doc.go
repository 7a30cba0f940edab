// Package xretry 提供重试策略与退避策略，底层由 [avast/retry-go/v5] 执行。
//
// 两个接口拆开"要不要再试"和"等多久再试"：
//   - RetryPolicy：FixedRetryPolicy、AlwaysRetryPolicy、NeverRetryPolicy、PredicateRetryPolicy
//   - BackoffPolicy：FixedBackoff、ExponentialBackoff、NoBackoff
//
// 典型用法（xsnow 等待时钟回拨恢复）：
//
//	r := xretry.NewRetryer(
//	    xretry.WithRetryPolicy(xretry.NewPredicateRetry(0, func(err error) bool {
//	        return errors.Is(err, xsnow.ErrClockMovedBackwards)
//	    })),
//	    xretry.WithBackoffPolicy(xretry.NewFixedBackoff(time.Millisecond)),
//	)
//	id, err := xretry.DoWithResult(ctx, r, func(context.Context) (xsnow.ID, error) {
//	    return gen.NextID()
//	})
//
// 错误可用 NewPermanentError / NewTemporaryError 显式标注；
// 未标注的错误默认可重试，PredicateRetryPolicy 除外（只看谓词）。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
