package xclaim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/go-redsync/redsync/v4"
	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

// RedisClaimer 基于 redsync 的登记后端。多个客户端时采用 Redlock，需过半节点成功。
type RedisClaimer struct {
	clients []redis.UniversalClient
	rs      *redsync.Redsync
	opts    *options
	closed  atomic.Bool
}

var _ Claimer = (*RedisClaimer)(nil)

func NewRedisClaimer(clients []redis.UniversalClient, opts ...Option) (*RedisClaimer, error) {
	if len(clients) == 0 {
		return nil, ErrNilClient
	}
	pools := make([]rsredis.Pool, len(clients))
	for i, c := range clients {
		if c == nil {
			return nil, fmt.Errorf("%w: client at index %s", ErrNilClient, strconv.Itoa(i))
		}
		pools[i] = goredis.NewPool(c)
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisClaimer{clients: clients, rs: redsync.New(pools...), opts: o}, nil
}

func (c *RedisClaimer) Claim(ctx context.Context, id xsnow.Identity) (Lease, error) {
	return c.opts.claim(ctx, id, c.claimOne)
}

func (c *RedisClaimer) ClaimAny(ctx context.Context, datacenterID int64) (Lease, error) {
	return c.opts.claimAny(ctx, datacenterID, c.claimOne)
}

func (c *RedisClaimer) claimOne(ctx context.Context, id xsnow.Identity) (Lease, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	key := Key(c.opts.prefix, id)
	token := c.opts.newToken()
	mutex := c.rs.NewMutex(key,
		redsync.WithExpiry(c.opts.ttl),
		redsync.WithTries(1),
		redsync.WithGenValueFunc(func() (string, error) { return token, nil }),
	)
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, wrapRedisError(err)
	}
	return &redisLease{id: id, key: key, token: token, mutex: mutex}, nil
}

// Health 对所有节点执行 PING。
func (c *RedisClaimer) Health(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	for _, client := range c.clients {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("xclaim: redis ping: %w", err)
		}
	}
	return nil
}

// Close 只阻止新的登记，已有租约仍可续期与释放。
func (c *RedisClaimer) Close(context.Context) error {
	c.closed.Store(true)
	return nil
}

type redisLease struct {
	id    xsnow.Identity
	key   string
	token string
	mutex *redsync.Mutex
}

func (l *redisLease) Identity() xsnow.Identity { return l.id }
func (l *redisLease) Key() string              { return l.key }
func (l *redisLease) Token() string            { return l.token }

func (l *redisLease) KeepAlive(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	ok, err := l.mutex.ExtendContext(ctx)
	if err != nil {
		return wrapLeaseError(err)
	}
	if !ok {
		return ErrLeaseLost
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return wrapLeaseError(err)
	}
	if !ok {
		return ErrLeaseLost
	}
	return nil
}

// wrapRedisError 把登记阶段的 redsync 错误映射为本包错误，保留原始错误链。
func wrapRedisError(err error) error {
	if isRedisTaken(err) {
		return fmt.Errorf("%w: %w", ErrIdentityTaken, err)
	}
	return err
}

// wrapLeaseError 续期或释放时，键已不属于本持有者即视为租约丢失。
func wrapLeaseError(err error) error {
	if isRedisTaken(err) || errors.Is(err, redsync.ErrLockAlreadyExpired) || errors.Is(err, redsync.ErrExtendFailed) {
		return fmt.Errorf("%w: %w", ErrLeaseLost, err)
	}
	return err
}

func isRedisTaken(err error) bool {
	var taken *redsync.ErrTaken
	var nodeTaken *redsync.ErrNodeTaken
	return errors.As(err, &taken) || errors.As(err, &nodeTaken)
}
