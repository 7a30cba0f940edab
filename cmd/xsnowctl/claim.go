package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xsnow/internal/settings"
	"github.com/omeyang/xsnow/pkg/distributed/xclaim"
	"github.com/omeyang/xsnow/pkg/lifecycle/xrun"
	"github.com/omeyang/xsnow/pkg/observability/xlog"
	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
	"github.com/omeyang/xsnow/pkg/storage/xetcd"
)

const (
	backendHealthTimeout = 5 * time.Second
	releaseTimeout       = 5 * time.Second
)

func claimCommand() *cli.Command {
	return &cli.Command{
		Name:  "claim",
		Usage: "在 claim.backend 上认领节点身份，持续续期直到收到信号",
		Description: "成功后向标准输出打印 \"<dc>-<worker>\\t<key>\"，之后阻塞续期；\n" +
			"退出时释放租约。租约丢失时以错误退出。",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "any",
				Usage: "在所配置的数据中心内认领任意空闲的工作节点 ID",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "续期间隔，默认 claim.ttl 的三分之一",
			},
		},
		Action: claimAction,
	}
}

func claimAction(ctx context.Context, cmd *cli.Command) error {
	s, cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if s.Claim.Backend == settings.BackendNone {
		return usagef("claim 需要配置 claim.backend（etcd 或 redis）")
	}
	interval := cmd.Duration("interval")
	if interval <= 0 {
		interval = s.Claim.TTL / 3
	}
	if interval >= s.Claim.TTL {
		return usagef("--interval %s 必须小于 claim.ttl %s", interval, s.Claim.TTL)
	}

	logger, cleanup, err := s.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	claimer, closeBackend, err := newClaimer(ctx, s, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	var lease xclaim.Lease
	if cmd.Bool("any") {
		lease, err = claimer.ClaimAny(ctx, s.DatacenterID)
	} else {
		lease, err = claimer.Claim(ctx, s.Identity())
	}
	if err != nil {
		return err
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := lease.Release(rctx); err != nil && !errors.Is(err, xclaim.ErrLeaseLost) {
			logger.Warn(rctx, "release identity lease failed", xlog.Err(err))
		}
	}()

	id := lease.Identity()
	if _, err := fmt.Fprintf(cmd.Root().Writer, "%s\t%s\n", id.String(), lease.Key()); err != nil {
		return err
	}

	services := []func(context.Context) error{xclaim.KeepAlive(lease, interval, logger)}
	if cmd.String(flagConfig) != "" {
		watcher, err := settings.WatchLogLevel(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
		services = append(services, watcher.Run)
	}

	err = xrun.RunWithOptions(ctx, []xrun.Option{
		xrun.WithName("xsnowctl-claim"),
		xrun.WithLogger(xlog.Slog(logger)),
	}, services...)
	if errors.Is(err, xrun.ErrSignal) {
		return nil
	}
	return err
}

// newClaimer 按 claim.backend 建立连接；返回的 close 依次关闭认领器与底层连接。
func newClaimer(ctx context.Context, s *settings.Settings, logger xlog.Logger) (xclaim.Claimer, func(), error) {
	obs, err := xmetrics.NewOTelObserver(xmetrics.WithInstrumentationName("xsnowctl"))
	if err != nil {
		return nil, nil, err
	}
	opts := []xclaim.Option{
		xclaim.WithPrefix(s.Claim.Prefix),
		xclaim.WithTTL(s.Claim.TTL),
		xclaim.WithLogger(logger),
		xclaim.WithObserver(obs),
	}
	if s.Claim.Owner != "" {
		opts = append(opts, xclaim.WithOwner(s.Claim.Owner))
	}

	switch s.Claim.Backend {
	case settings.BackendEtcd:
		return newEtcdClaimer(ctx, s, opts)
	case settings.BackendRedis:
		return newRedisClaimer(s, opts)
	default:
		return nil, nil, usagef("未知 claim.backend %q", s.Claim.Backend)
	}
}

func newEtcdClaimer(ctx context.Context, s *settings.Settings, opts []xclaim.Option) (xclaim.Claimer, func(), error) {
	cfg := xetcd.DefaultConfig()
	cfg.Endpoints = s.Claim.Endpoints
	cfg.Username = s.Claim.Username
	cfg.Password = s.Claim.Password

	client, err := xetcd.NewClient(cfg,
		xetcd.WithContext(ctx),
		xetcd.WithHealthCheck(true, backendHealthTimeout),
	)
	if err != nil {
		return nil, nil, err
	}
	claimer, err := xclaim.NewEtcdClaimer(ctx, client.RawClient(), opts...)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return claimer, func() {
		cctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = claimer.Close(cctx)
		_ = client.Close()
	}, nil
}

// newRedisClaimer 每个端点是一个独立 master，redsync 按多数派加锁。
func newRedisClaimer(s *settings.Settings, opts []xclaim.Option) (xclaim.Claimer, func(), error) {
	clients := make([]redis.UniversalClient, 0, len(s.Claim.Endpoints))
	closeAll := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}
	for _, ep := range s.Claim.Endpoints {
		clients = append(clients, redis.NewClient(&redis.Options{
			Addr:     ep,
			Username: s.Claim.Username,
			Password: s.Claim.Password,
		}))
	}

	claimer, err := xclaim.NewRedisClaimer(clients, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	hctx, cancel := context.WithTimeout(context.Background(), backendHealthTimeout)
	defer cancel()
	if err := claimer.Health(hctx); err != nil {
		closeAll()
		return nil, nil, err
	}
	return claimer, func() {
		cctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = claimer.Close(cctx)
		closeAll()
	}, nil
}
