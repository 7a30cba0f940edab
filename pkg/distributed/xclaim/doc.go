// Package xclaim 在共享存储上登记 (数据中心, 工作节点) 身份，
// 防止两个运行中的生成器使用相同 Identity。
//
// 登记是带 TTL 的租约：持有者须周期性调用 [Lease.KeepAlive]，
// 进程崩溃后租约自然过期，身份可被重新领取。
//
//	claimer, _ := xclaim.NewRedisClaimer(rdb, xclaim.WithTTL(10*time.Second))
//	lease, err := claimer.Claim(ctx, xsnow.Identity{DatacenterID: 3, WorkerID: 7})
//	if errors.Is(err, xclaim.ErrIdentityTaken) {
//	    // 其他实例正在使用
//	}
//	defer lease.Release(context.Background())
//
// 后端：
//   - Redis：redsync 互斥锁，支持多节点 Redlock
//   - etcd：concurrency.Session 租约 + CreateRevision 事务
//
// 登记只在身份分配阶段起作用，生成 ID 的热路径不访问存储。
package xclaim
