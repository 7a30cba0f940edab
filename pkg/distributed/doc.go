// Package distributed 提供分布式协调相关的子包。
//
// 子包列表：
//   - xclaim: 节点身份登记，etcd 与 Redis 后端，保证同一 (数据中心, 工作节点) 只有一个持有者
package distributed
