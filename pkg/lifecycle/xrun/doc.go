// Package xrun 基于 errgroup 管理长驻任务的并发运行与协调退出。
//
// 任一任务返回错误、收到退出信号或父 ctx 取消时，其余任务都会收到取消。
//
//	err := xrun.Run(ctx,
//	    xrun.Ticker(ttl/3, false, lease.KeepAlive),
//	    watcher.Run,
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常退出
//	}
package xrun
