package xsnow

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
	"github.com/omeyang/xsnow/pkg/resilience/xretry"
)

// NextIDWithRetry 生成下一个 ID，遇到时钟回拨时按固定间隔重试。
//
// NextID 本身从不重试回拨；这里是调用方可选的等待策略：
//   - 只有 [ErrClockMovedBackwards] 会被重试，其他错误立即返回
//   - 累计等待超过 maxWaitDuration（默认 500ms）返回 [ErrClockBackwardTimeout]，包裹最后一次回拨错误
//   - ctx 取消时返回 ctx.Err()
//
// 每次调用在观测器中记录 component=xsnow、operation=next_id 的跨度。
func (g *Generator) NextIDWithRetry(ctx context.Context) (id ID, err error) {
	if err := g.validate(); err != nil {
		return 0, err
	}
	if ctx == nil {
		return 0, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ctx, span := xmetrics.Start(ctx, g.observer, xmetrics.SpanOptions{
		Component: "xsnow",
		Operation: "next_id",
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			{Key: "datacenter_id", Value: g.datacenterID},
			{Key: "worker_id", Value: g.workerID},
		},
	})
	defer func() {
		span.End(xmetrics.Result{Err: err})
	}()

	// 快速路径：首次成功不创建重试器
	id, err = g.NextID()
	if err == nil || !errors.Is(err, ErrClockMovedBackwards) {
		return id, err
	}
	if g.maxWaitDuration == 0 {
		return 0, fmt.Errorf("%w: %w", ErrClockBackwardTimeout, err)
	}
	return g.retryNextID(ctx, err)
}

// retryNextID 处理 NextIDWithRetry 的重试循环，等待上限由派生 context 的超时控制。
func (g *Generator) retryNextID(ctx context.Context, firstErr error) (ID, error) {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWaitDuration)
	defer cancel()

	lastErr := firstErr
	retryer := xretry.NewRetryer(
		xretry.WithRetryPolicy(xretry.NewPredicateRetry(0, func(err error) bool {
			return errors.Is(err, ErrClockMovedBackwards)
		})),
		xretry.WithBackoffPolicy(xretry.NewFixedBackoff(g.retryInterval)),
	)

	id, err := xretry.DoWithResult(waitCtx, retryer, func(context.Context) (ID, error) {
		id, err := g.NextID()
		if err != nil {
			lastErr = err
		}
		return id, err
	})
	if err == nil {
		return id, nil
	}

	switch {
	case ctx.Err() != nil:
		return 0, ctx.Err()
	case waitCtx.Err() != nil && errors.Is(lastErr, ErrClockMovedBackwards):
		return 0, fmt.Errorf("%w: %w", ErrClockBackwardTimeout, lastErr)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return 0, lastErr
	default:
		return 0, err
	}
}
