package xsnow

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
)

// Generator 雪花 ID 生成器。
//
// 每个进程持有一个实例并在所有调用点之间共享。sequence 与 lastTimestamp
// 只在 mu 保护下读写；datacenterID、workerID 构造后只读。
type Generator struct {
	mu            sync.Mutex
	sequence      int64
	lastTimestamp int64 // 原始时钟毫秒，未减 Epoch；-1 表示尚未发号

	datacenterID int64
	workerID     int64
	clock        Clock
	spinInterval time.Duration

	maxWaitDuration time.Duration
	retryInterval   time.Duration
	observer        xmetrics.Observer
}

// New 创建生成器。datacenterID、workerID 必须在 [0, 31] 内，否则返回 [ErrInvalidIdentity]。
//
// 构造没有副作用。同一 (datacenterID, workerID) 在集群内只能被一个运行中的实例使用，
// 这一约束由部署方保证（参见 xclaim 包）。
func New(datacenterID, workerID int64, opts ...Option) (*Generator, error) {
	if err := (Identity{DatacenterID: datacenterID, WorkerID: workerID}).Validate(); err != nil {
		return nil, err
	}

	cfg := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.spinInterval < 0 {
		return nil, fmt.Errorf("%w: spin interval must be non-negative, got %s", ErrInvalidConfig, cfg.spinInterval)
	}
	if cfg.maxWaitDuration < 0 {
		return nil, fmt.Errorf("%w: max wait duration must be non-negative, got %s", ErrInvalidConfig, cfg.maxWaitDuration)
	}
	if cfg.retryInterval < 0 {
		return nil, fmt.Errorf("%w: retry interval must be non-negative, got %s", ErrInvalidConfig, cfg.retryInterval)
	}

	g := &Generator{
		lastTimestamp:   -1,
		datacenterID:    datacenterID,
		workerID:        workerID,
		clock:           cfg.clock,
		spinInterval:    DefaultSpinInterval,
		maxWaitDuration: DefaultMaxWaitDuration,
		retryInterval:   DefaultRetryInterval,
		observer:        cfg.observer,
	}
	if g.clock == nil {
		g.clock = SystemClock()
	}
	if cfg.spinIntervalSet {
		g.spinInterval = cfg.spinInterval
	}
	if cfg.maxWaitSet {
		g.maxWaitDuration = cfg.maxWaitDuration
	}
	if cfg.retryIntervalSet {
		g.retryInterval = cfg.retryInterval
	}
	return g, nil
}

// NewFromIdentity 等价于 New(id.DatacenterID, id.WorkerID, opts...)。
func NewFromIdentity(id Identity, opts ...Option) (*Generator, error) {
	return New(id.DatacenterID, id.WorkerID, opts...)
}

// Identity 返回生成器的节点身份。
func (g *Generator) Identity() Identity {
	if g == nil {
		return Identity{}
	}
	return Identity{DatacenterID: g.datacenterID, WorkerID: g.workerID}
}

func (g *Generator) validate() error {
	if g == nil || g.clock == nil {
		return ErrNilGenerator
	}
	return nil
}

// NextID 生成下一个 ID。
//
// 整个读时钟-比较-递增-写回过程在互斥锁内完成：
//   - now < lastTimestamp：返回 [*ClockMovedBackwardsError]，状态不变
//   - now == lastTimestamp：序列号加一；4096 个序列号用尽时等待时钟进入下一毫秒
//   - now > lastTimestamp：序列号归零
//
// 吞吐上限为每毫秒 4096 个，达到上限时阻塞而不是报错。
// 时间分量超出 41 位时返回 [ErrTimeOverflow]，状态同样不变。
func (g *Generator) NextID() (ID, error) {
	if err := g.validate(); err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.NowMilli()
	if now < g.lastTimestamp {
		return 0, &ClockMovedBackwardsError{Last: g.lastTimestamp, Now: now}
	}

	seq := int64(0)
	if now == g.lastTimestamp {
		seq = (g.sequence + 1) & MaxSequence
		if seq == 0 {
			now = g.waitNextMilli(g.lastTimestamp)
		}
	}

	ts := now - Epoch
	if ts < 0 || ts > MaxTimestamp {
		return 0, fmt.Errorf("%w: clock %dms is outside [Epoch, Epoch+2^%d)", ErrTimeOverflow, now, TimestampBits)
	}

	g.sequence = seq
	g.lastTimestamp = now
	return compose(ts, g.datacenterID, g.workerID, seq), nil
}

// waitNextMilli 轮询时钟直到读数严格大于 last，等待期间的回拨同样继续等待。
// 调用方持有 mu。
func (g *Generator) waitNextMilli(last int64) int64 {
	now := g.clock.NowMilli()
	for now <= last {
		if g.spinInterval > 0 {
			time.Sleep(g.spinInterval)
		} else {
			runtime.Gosched()
		}
		now = g.clock.NowMilli()
	}
	return now
}
