package xclaim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

// EtcdClaimer 基于 etcd 租约的登记后端。所有登记共享一个 Session，
// Session 由 clientv3 后台自动续约。
type EtcdClaimer struct {
	client  *clientv3.Client
	session *concurrency.Session
	opts    *options
	closed  atomic.Bool
}

var _ Claimer = (*EtcdClaimer)(nil)

// NewEtcdClaimer 创建 Session。ctx 取消后 Session 停止续约。
func NewEtcdClaimer(ctx context.Context, client *clientv3.Client, opts ...Option) (*EtcdClaimer, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if client == nil {
		return nil, ErrNilClient
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	session, err := concurrency.NewSession(client,
		concurrency.WithTTL(int(o.ttl/time.Second)),
		concurrency.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("xclaim: create etcd session: %w", err)
	}
	return &EtcdClaimer{client: client, session: session, opts: o}, nil
}

func (c *EtcdClaimer) Claim(ctx context.Context, id xsnow.Identity) (Lease, error) {
	return c.opts.claim(ctx, id, c.claimOne)
}

func (c *EtcdClaimer) ClaimAny(ctx context.Context, datacenterID int64) (Lease, error) {
	return c.opts.claimAny(ctx, datacenterID, c.claimOne)
}

// claimOne 仅当键不存在时写入，键绑定 Session 租约。
func (c *EtcdClaimer) claimOne(ctx context.Context, id xsnow.Identity) (Lease, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := c.sessionAlive(); err != nil {
		return nil, err
	}
	key := Key(c.opts.prefix, id)
	token := c.opts.newToken()
	resp, err := c.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, token, clientv3.WithLease(c.session.Lease()))).
		Commit()
	if err != nil {
		return nil, fmt.Errorf("xclaim: etcd txn: %w", err)
	}
	if !resp.Succeeded {
		return nil, fmt.Errorf("%w: %s", ErrIdentityTaken, key)
	}
	return &etcdLease{claimer: c, id: id, key: key, token: token}, nil
}

func (c *EtcdClaimer) sessionAlive() error {
	select {
	case <-c.session.Done():
		return fmt.Errorf("%w: etcd session expired", ErrLeaseLost)
	default:
		return nil
	}
}

// Session 返回底层 Session，其 Done 通道关闭即所有租约丢失。
func (c *EtcdClaimer) Session() *concurrency.Session {
	return c.session
}

// Close 撤销 Session 租约，其下所有登记随之删除。
func (c *EtcdClaimer) Close(context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.session.Close()
}

type etcdLease struct {
	claimer *EtcdClaimer
	id      xsnow.Identity
	key     string
	token   string
}

func (l *etcdLease) Identity() xsnow.Identity { return l.id }
func (l *etcdLease) Key() string              { return l.key }
func (l *etcdLease) Token() string            { return l.token }

// KeepAlive 续约由 Session 完成，这里确认 Session 存活且键仍属于本持有者。
func (l *etcdLease) KeepAlive(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if err := l.claimer.sessionAlive(); err != nil {
		return err
	}
	resp, err := l.claimer.client.Get(ctx, l.key)
	if err != nil {
		return fmt.Errorf("xclaim: etcd get: %w", err)
	}
	if len(resp.Kvs) == 0 || string(resp.Kvs[0].Value) != l.token {
		return fmt.Errorf("%w: %s", ErrLeaseLost, l.key)
	}
	return nil
}

// Release 仅在值仍为本 token 时删除键。
func (l *etcdLease) Release(ctx context.Context) error {
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	resp, err := l.claimer.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(l.key), "=", l.token)).
		Then(clientv3.OpDelete(l.key)).
		Commit()
	if err != nil {
		return fmt.Errorf("xclaim: etcd txn: %w", err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%w: %s", ErrLeaseLost, l.key)
	}
	return nil
}
