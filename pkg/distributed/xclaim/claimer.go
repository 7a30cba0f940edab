package xclaim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xsnow/pkg/observability/xlog"
	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

// Claimer 身份登记后端
type Claimer interface {
	// Claim 登记指定身份。已被占用时返回 ErrIdentityTaken。
	Claim(ctx context.Context, id xsnow.Identity) (Lease, error)
	// ClaimAny 在 datacenterID 内领取任意空闲工作节点 ID，全部占用时返回 ErrNoFreeWorker。
	ClaimAny(ctx context.Context, datacenterID int64) (Lease, error)
	// Close 释放后端资源，不关闭调用方传入的客户端。
	Close(ctx context.Context) error
}

//go:generate mockgen -destination=mock_lease_test.go -package=xclaim github.com/omeyang/xsnow/pkg/distributed/xclaim Lease

// Lease 一次成功的登记
type Lease interface {
	Identity() xsnow.Identity
	// Key 存储中的完整键名
	Key() string
	// Token 本次登记写入的持有者标识
	Token() string
	// KeepAlive 续期一次。返回 ErrLeaseLost 时身份已不再属于本持有者。
	KeepAlive(ctx context.Context) error
	// Release 主动释放，已丢失的租约返回 ErrLeaseLost。
	Release(ctx context.Context) error
}

const (
	DefaultPrefix = "/xsnow/identity"
	DefaultTTL    = 10 * time.Second
)

type options struct {
	prefix   string
	ttl      time.Duration
	owner    string
	logger   xlog.Logger
	observer xmetrics.Observer
}

// Option Claimer 选项
type Option func(*options)

// WithPrefix 键前缀，默认 /xsnow/identity。
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = strings.TrimRight(prefix, "/") }
}

// WithTTL 租约时长，etcd 按秒取整。
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithOwner 写入 token 的可读前缀，通常为 Pod 名。
func WithOwner(owner string) Option {
	return func(o *options) { o.owner = owner }
}

func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func buildOptions(opts []Option) (*options, error) {
	o := &options{
		prefix:   DefaultPrefix,
		ttl:      DefaultTTL,
		logger:   xlog.Default(),
		observer: xmetrics.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if o.ttl < time.Second {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTTL, o.ttl)
	}
	return o, nil
}

// Key 返回身份对应的键，如 /xsnow/identity/3/7。
func Key(prefix string, id xsnow.Identity) string {
	return prefix + "/" + strconv.FormatInt(id.DatacenterID, 10) + "/" + strconv.FormatInt(id.WorkerID, 10)
}

// newToken 持有者标识：owner:uuid，owner 为空时只有 uuid
func (o *options) newToken() string {
	if o.owner == "" {
		return uuid.NewString()
	}
	return o.owner + ":" + uuid.NewString()
}

// claimFunc 单个身份的登记动作，由后端实现
type claimFunc func(ctx context.Context, id xsnow.Identity) (Lease, error)

// claim 统一处理参数校验、埋点与日志
func (o *options) claim(ctx context.Context, id xsnow.Identity, fn claimFunc) (lease Lease, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	ctx, span := xmetrics.Start(ctx, o.observer, xmetrics.SpanOptions{
		Component: "xclaim",
		Operation: "claim",
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.Int64("datacenter_id", id.DatacenterID),
			xmetrics.Int64("worker_id", id.WorkerID),
		},
	})
	defer func() {
		status := xmetrics.StatusOK
		if err != nil && !errors.Is(err, ErrIdentityTaken) {
			status = xmetrics.StatusError
		}
		span.End(xmetrics.Result{Status: status, Err: err})
	}()

	lease, err = fn(ctx, id)
	if err != nil {
		return nil, err
	}
	o.logger.Info(ctx, "identity claimed",
		append(xlog.Node(id.DatacenterID, id.WorkerID), slog.String("key", lease.Key()))...)
	return lease, nil
}

// claimAny 从 owner 名称的哈希位置开始轮询，减少多实例同时启动时的冲突。
func (o *options) claimAny(ctx context.Context, datacenterID int64, fn claimFunc) (Lease, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	start := int64(0)
	if o.owner != "" {
		start = xsnow.WorkerIDFromName(o.owner)
	}
	for i := range xsnow.MaxWorkerID + 1 {
		id := xsnow.Identity{DatacenterID: datacenterID, WorkerID: (start + i) % (xsnow.MaxWorkerID + 1)}
		lease, err := o.claim(ctx, id, fn)
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, ErrIdentityTaken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: datacenter %d", ErrNoFreeWorker, datacenterID)
}

// cleanupContext 调用方 ctx 已结束时仍尽力释放
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil || ctx.Err() != nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	return ctx, func() {}
}
