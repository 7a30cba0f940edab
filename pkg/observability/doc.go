// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xmetrics: 统一可观测性接口（指标、追踪），OpenTelemetry 实现
//   - xrotate: 日志文件轮转
//
// 日志自动从 context 中提取追踪信息。
package observability
