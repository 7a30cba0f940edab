// Package xetcd 创建带 keepalive 与可选健康检查的 etcd 客户端。
//
// 只负责连接管理。租约、事务等操作通过 [Client.RawClient] 使用原生 clientv3。
package xetcd
