package xetcd

import (
	"context"
	"crypto/tls"
	"time"
)

// DefaultHealthCheckKey 健康检查读取的 key，启用 RBAC 时应改到授权前缀下
const DefaultHealthCheckKey = "/xsnow/health"

type options struct {
	ctx            context.Context
	healthCheck    bool
	healthTimeout  time.Duration
	healthCheckKey string
	tlsConfig      *tls.Config
}

// Option 客户端选项
type Option func(*options)

func defaultOptions() *options {
	return &options{
		ctx:            context.Background(),
		healthTimeout:  10 * time.Second,
		healthCheckKey: DefaultHealthCheckKey,
	}
}

// WithContext 仅作用于 NewClient 期间的健康检查。
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithHealthCheck 创建后执行一次 Get，失败则关闭客户端并返回错误。
func WithHealthCheck(enabled bool, timeout time.Duration) Option {
	return func(o *options) {
		o.healthCheck = enabled
		if timeout > 0 {
			o.healthTimeout = timeout
		}
	}
}

func WithHealthCheckKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.healthCheckKey = key
		}
	}
}

func WithTLS(config *tls.Config) Option {
	return func(o *options) { o.tlsConfig = config }
}
