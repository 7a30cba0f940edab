// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xsnow: 雪花 ID 生成器，64 位 ID 的组装、拆分与解析，节点身份推导
package util
