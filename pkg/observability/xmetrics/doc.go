// Package xmetrics 提供最小化的观测接口：Observer / Span / Attr。
//
// 业务代码只依赖接口，默认实现基于 OpenTelemetry，同时产出 trace 与 metrics。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xsnow",
//		Operation: "next_id",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// 指标：
//   - xsnow.operation.total（计数）
//   - xsnow.operation.duration（秒，直方图）
//
// 统一属性：component / operation / status。
package xmetrics
