// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后 Build 直接返回该错误。
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetStaticAttrs(xlog.Node(3, 7)...).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// SetRotation 把输出切到 xrotate 轮转文件，cleanup 负责关闭。
//
// # Trace 关联
//
// 默认启用 [EnrichHandler]：ctx 中存在有效的 OpenTelemetry SpanContext 时，
// 自动追加 trace_id 与 span_id。
//
// # 全局 Logger
//
// [Default] 惰性创建 stderr/Info/text 的 Logger，[SetDefault] 替换，
// [ResetDefault] 仅用于测试。服务端优先显式注入 Logger。
package xlog
