package xsnow

import "time"

// Clock 提供毫秒级墙上时间。
//
// 生成器只比较原始读数，Epoch 仅在组装 ID 时减去，
// 因此任何单调递增（允许偶发回拨）的毫秒源都可以替换进来。
type Clock interface {
	NowMilli() int64
}

// ClockFunc 将函数适配为 Clock。
type ClockFunc func() int64

// NowMilli 实现 Clock。
func (f ClockFunc) NowMilli() int64 { return f() }

// systemClock 读取系统墙上时间（Unix 毫秒）。
type systemClock struct{}

func (systemClock) NowMilli() int64 { return time.Now().UnixMilli() }

// SystemClock 返回默认时钟。
func SystemClock() Clock { return systemClock{} }
