package xetcd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// Client 持有 clientv3 连接，并发安全。
type Client struct {
	raw            *clientv3.Client
	healthCheckKey string
	closed         atomic.Bool
}

// NewClient 校验配置并建立连接。keepalive 仅通过 DialOptions 设置，
// 以便同时控制 PermitWithoutStream。
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	cfg := config.withDefaults()

	raw, err := clientv3.New(clientv3.Config{
		Endpoints:        cfg.Endpoints,
		DialTimeout:      cfg.DialTimeout,
		Username:         cfg.Username,
		Password:         cfg.Password,
		RejectOldCluster: cfg.RejectOldCluster,
		TLS:              o.tlsConfig,
		DialOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                cfg.DialKeepAliveTime,
				Timeout:             cfg.DialKeepAliveTimeout,
				PermitWithoutStream: cfg.PermitWithoutStream,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("xetcd: create client: %w", err)
	}

	c := &Client{raw: raw, healthCheckKey: o.healthCheckKey}
	if o.healthCheck {
		ctx, cancel := context.WithTimeout(o.ctx, o.healthTimeout)
		defer cancel()
		if err := c.Health(ctx); err != nil {
			return nil, errors.Join(err, raw.Close())
		}
	}
	return c, nil
}

// RawClient 返回原生客户端，用于 Session、Txn 等操作。
func (c *Client) RawClient() *clientv3.Client {
	return c.raw
}

// Health 读取健康检查 key 验证连通性与权限。
func (c *Client) Health(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if _, err := c.raw.Get(ctx, c.healthCheckKey); err != nil {
		return fmt.Errorf("xetcd: health check failed: %w", err)
	}
	return nil
}

// Close 可重复调用，第二次起返回 nil。
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.raw.Close()
}
