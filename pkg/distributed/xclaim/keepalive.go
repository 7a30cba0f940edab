package xclaim

import (
	"context"
	"time"

	"github.com/omeyang/xsnow/pkg/lifecycle/xrun"
	"github.com/omeyang/xsnow/pkg/observability/xlog"
)

// KeepAlive 返回可交给 xrun 的长驻任务：每 interval 续期一次，
// 租约丢失时返回 ErrLeaseLost，使整个进程组退出。
// interval 须为正且小于租约 TTL（通常取 TTL 的三分之一），
// 不大于 0 时任务立即返回 xrun.ErrInvalidInterval。
func KeepAlive(lease Lease, interval time.Duration, logger xlog.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = xlog.Default()
	}
	return xrun.Ticker(interval, false, func(ctx context.Context) error {
		if err := lease.KeepAlive(ctx); err != nil {
			id := lease.Identity()
			logger.Error(ctx, "identity lease keepalive failed",
				append(xlog.Node(id.DatacenterID, id.WorkerID), xlog.Err(err))...)
			return err
		}
		return nil
	})
}
