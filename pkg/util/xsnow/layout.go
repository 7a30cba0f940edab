package xsnow

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// ID 位布局
// =============================================================================

// Epoch 全集群共享的纪元（2025-01-01T00:00:00Z，Unix 毫秒）。
// 所有节点必须使用同一个值，否则不同节点生成的 ID 无法相互排序。
//
// 41 位时间分量在 Epoch 之后约 69 年（2^41 ms）耗尽，届时 NextID 返回 [ErrTimeOverflow]。
const Epoch int64 = 1735689600000

// 位宽：1 位符号（恒为 0）| 41 位时间戳 | 5 位数据中心 | 5 位工作节点 | 12 位序列号
const (
	TimestampBits  = 41
	DatacenterBits = 5
	WorkerBits     = 5
	SequenceBits   = 12

	WorkerShift     = SequenceBits                               // 12
	DatacenterShift = SequenceBits + WorkerBits                  // 17
	TimestampShift  = SequenceBits + WorkerBits + DatacenterBits // 22

	MaxDatacenterID int64 = (1 << DatacenterBits) - 1 // 31
	MaxWorkerID     int64 = (1 << WorkerBits) - 1     // 31
	MaxSequence     int64 = (1 << SequenceBits) - 1   // 4095
	MaxTimestamp    int64 = (1 << TimestampBits) - 1
)

// ID 是一个 63 位有效的雪花 ID，最高位恒为 0。
type ID int64

// Int64 返回 ID 的整数值。
func (id ID) Int64() int64 { return int64(id) }

// String 返回 base36 编码（最多 13 个字符）。
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 36)
}

// Decimal 返回十进制字符串。
func (id ID) Decimal() string {
	return strconv.FormatInt(int64(id), 10)
}

// Components 按位拆分 ID，不做校验。
func (id ID) Components() Components {
	v := int64(id)
	return Components{
		Timestamp:    (v >> TimestampShift) & MaxTimestamp,
		DatacenterID: (v >> DatacenterShift) & MaxDatacenterID,
		WorkerID:     (v >> WorkerShift) & MaxWorkerID,
		Sequence:     v & MaxSequence,
	}
}

// Time 返回 ID 的生成时刻（毫秒精度）。
func (id ID) Time() time.Time {
	return id.Components().Time()
}

// Components 表示 ID 的四个分量。
type Components struct {
	// Timestamp 自 Epoch 起的毫秒数（41 位）
	Timestamp int64 `json:"timestamp"`
	// DatacenterID 数据中心 ID（5 位）
	DatacenterID int64 `json:"datacenter_id"`
	// WorkerID 工作节点 ID（5 位）
	WorkerID int64 `json:"worker_id"`
	// Sequence 同一毫秒内的序列号（12 位）
	Sequence int64 `json:"sequence"`
}

// Time 返回分量对应的绝对时间（UTC）。
func (c Components) Time() time.Time {
	return time.UnixMilli(Epoch + c.Timestamp).UTC()
}

// Validate 检查每个分量是否落在各自位宽内。
func (c Components) Validate() error {
	switch {
	case c.Timestamp < 0 || c.Timestamp > MaxTimestamp:
		return fmt.Errorf("%w: timestamp %d out of range [0, %d]", ErrInvalidID, c.Timestamp, MaxTimestamp)
	case c.DatacenterID < 0 || c.DatacenterID > MaxDatacenterID:
		return fmt.Errorf("%w: datacenter id %d out of range [0, %d]", ErrInvalidID, c.DatacenterID, MaxDatacenterID)
	case c.WorkerID < 0 || c.WorkerID > MaxWorkerID:
		return fmt.Errorf("%w: worker id %d out of range [0, %d]", ErrInvalidID, c.WorkerID, MaxWorkerID)
	case c.Sequence < 0 || c.Sequence > MaxSequence:
		return fmt.Errorf("%w: sequence %d out of range [0, %d]", ErrInvalidID, c.Sequence, MaxSequence)
	}
	return nil
}

// Compose 将分量组装为 ID。任一分量越界返回 [ErrInvalidID]。
func Compose(c Components) (ID, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return compose(c.Timestamp, c.DatacenterID, c.WorkerID, c.Sequence), nil
}

// compose 调用方保证各分量已在位宽内。
func compose(ts, dc, worker, seq int64) ID {
	return ID(ts<<TimestampShift | dc<<DatacenterShift | worker<<WorkerShift | seq)
}

// Decompose 拆分 ID。负值（符号位为 1）不是合法 ID，返回 [ErrInvalidID]。
func Decompose(id ID) (Components, error) {
	if id < 0 {
		return Components{}, fmt.Errorf("%w: negative value %d", ErrInvalidID, int64(id))
	}
	return id.Components(), nil
}

// ParseID 解析 base36 字符串（[ID.String] 的逆操作）。
func ParseID(s string) (ID, error) {
	return parse(s, 36)
}

// ParseDecimal 解析十进制字符串。
func ParseDecimal(s string) (ID, error) {
	return parse(s, 10)
}

func parse(s string, base int) (ID, error) {
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value %d", ErrInvalidID, v)
	}
	return ID(v), nil
}
