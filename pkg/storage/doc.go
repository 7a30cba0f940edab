// Package storage 提供存储后端连接相关的子包。
//
// 子包列表：
//   - xetcd: etcd 客户端连接管理与健康检查
package storage
