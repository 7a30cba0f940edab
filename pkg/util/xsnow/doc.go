// Package xsnow 提供 Snowflake 风格的 64 位分布式唯一 ID 生成器。
//
// # ID 结构
//
//	 1 bit  - 符号位，恒为 0
//	41 bits - 自 Epoch（2025-01-01 UTC）起的毫秒数，约 69 年
//	 5 bits - 数据中心 ID（0-31）
//	 5 bits - 工作节点 ID（0-31）
//	12 bits - 同一毫秒内的序列号（0-4095）
//
// 组装公式：(now-Epoch)<<22 | dc<<17 | worker<<12 | seq。
//
// # 快速开始
//
//	gen, err := xsnow.New(3, 7)
//	if err != nil {
//	    return err // ErrInvalidIdentity
//	}
//	id, err := gen.NextID()
//	if err != nil {
//	    return err // ErrClockMovedBackwards 或 ErrTimeOverflow
//	}
//	fmt.Println(id.Int64(), id.String())
//
// 一个进程只创建一个 Generator 并在所有调用点共享，包内没有全局实例。
//
// # 并发
//
// NextID 在互斥锁内完成整个发号过程，可被任意多个 goroutine 并发调用。
// 单实例吞吐上限为每毫秒 4096 个；序列号耗尽时 NextID 等待时钟进入下一毫秒，
// 不会因吞吐返回错误。
//
// # 时钟回拨
//
// 时钟读数小于上次发号时间戳时，NextID 返回 [*ClockMovedBackwardsError]
// （errors.Is 匹配 [ErrClockMovedBackwards]），生成器状态保持不变。
// NextID 不会自行等待回拨恢复。需要等待的调用方使用 [Generator.NextIDWithRetry]：
//
//	gen, _ := xsnow.New(dc, worker,
//	    xsnow.WithMaxWaitDuration(time.Second),
//	    xsnow.WithRetryInterval(5*time.Millisecond),
//	)
//	id, err := gen.NextIDWithRetry(ctx)
//	if errors.Is(err, xsnow.ErrClockBackwardTimeout) {
//	    // 告警或切换到其他节点
//	}
//
// # 节点身份
//
// (数据中心 ID, 工作节点 ID) 由部署方分配。[IdentityFromEnv] 读取
// XSNOW_DATACENTER_ID / XSNOW_WORKER_ID（缺省为 0）。[WorkerIDFromName]
// 可将 Pod 名哈希到 5 位，但 32 个槽位碰撞概率很高，仅作为提示。
// 如需在运行时确认身份未被其他节点占用，参见 xclaim 包。
package xsnow
