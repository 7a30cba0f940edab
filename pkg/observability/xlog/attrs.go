package xlog

import (
	"log/slog"
	"time"
)

// 日志字段名
const (
	KeyError        = "error"
	KeyStack        = "stack"
	KeyDuration     = "duration"
	KeyCount        = "count"
	KeyComponent    = "component"
	KeyOperation    = "operation"
	KeyTraceID      = "trace_id"
	KeySpanID       = "span_id"
	KeyDatacenterID = "datacenter_id"
	KeyWorkerID     = "worker_id"
	KeyID           = "id"
)

// Err 错误属性；err 为 nil 时返回空属性，slog 会忽略它。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 人类可读的耗时，如 "1.5ms"。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// ID 记录一个生成出的 ID，按十进制输出。
func ID(id int64) slog.Attr {
	return slog.Int64(KeyID, id)
}

// Node 数据中心与 worker 编号，通常作为 SetStaticAttrs 的参数。
func Node(datacenterID, workerID int64) []slog.Attr {
	return []slog.Attr{
		slog.Int64(KeyDatacenterID, datacenterID),
		slog.Int64(KeyWorkerID, workerID),
	}
}
