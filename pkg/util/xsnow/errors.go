package xsnow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentity 数据中心 ID 或工作节点 ID 超出 [0, 31]。
	// 构造失败时不会返回可用的生成器。
	ErrInvalidIdentity = errors.New("xsnow: invalid identity")

	// ErrClockMovedBackwards 时钟回拨：当前时间小于上一次发号使用的时间戳。
	// NextID 不做任何纠正，生成器状态保持不变，由调用方决定重试、告警或切换节点。
	ErrClockMovedBackwards = errors.New("xsnow: clock moved backwards")

	// ErrTimeOverflow 时间分量超出 41 位（早于 Epoch 或晚于 Epoch+2^41ms）。
	// 生成器拒绝发号而不是截断时间戳。
	ErrTimeOverflow = errors.New("xsnow: time component overflow")

	// ErrClockBackwardTimeout NextIDWithRetry 等待时钟追回超时。
	ErrClockBackwardTimeout = errors.New("xsnow: clock backward wait timeout")

	// ErrInvalidID ID 无法解析或某个分量越界。
	ErrInvalidID = errors.New("xsnow: invalid id")

	// ErrInvalidConfig 选项参数无效（如负的等待时长）。
	ErrInvalidConfig = errors.New("xsnow: invalid config")

	// ErrNilGenerator 生成器为 nil 或未通过 New 创建。
	ErrNilGenerator = errors.New("xsnow: nil generator (use New to create)")

	// ErrNilContext context 参数为 nil。
	ErrNilContext = errors.New("xsnow: nil context")
)

// ClockMovedBackwardsError 携带回拨现场的时间戳（原始毫秒，未减 Epoch）。
// errors.Is(err, ErrClockMovedBackwards) 对其成立。
type ClockMovedBackwardsError struct {
	Last int64
	Now  int64
}

func (e *ClockMovedBackwardsError) Error() string {
	return fmt.Sprintf("%s: last=%d now=%d (behind by %dms)",
		ErrClockMovedBackwards.Error(), e.Last, e.Now, e.Last-e.Now)
}

// Is 使 errors.Is 可以匹配 ErrClockMovedBackwards。
func (e *ClockMovedBackwardsError) Is(target error) bool {
	return target == ErrClockMovedBackwards
}

// Behind 返回时钟落后的毫秒数。
func (e *ClockMovedBackwardsError) Behind() int64 {
	return e.Last - e.Now
}
