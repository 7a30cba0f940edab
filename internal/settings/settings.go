// Package settings 定义 xsnow 节点配置的结构、默认值与加载顺序：
// 默认值 < 配置文件 < 环境变量 < 命令行参数。
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xsnow/pkg/config/xconf"
	"github.com/omeyang/xsnow/pkg/distributed/xclaim"
	"github.com/omeyang/xsnow/pkg/observability/xlog"
	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

// 配置键，命令行参数按这些键写入 Overlay
const (
	KeyDatacenterID = "datacenter-id"
	KeyWorkerID     = "worker-id"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
)

// 认领后端
const (
	BackendNone  = ""
	BackendEtcd  = "etcd"
	BackendRedis = "redis"
)

// ErrInvalid 配置校验失败
var ErrInvalid = errors.New("settings: invalid configuration")

type Settings struct {
	DatacenterID int64         `koanf:"datacenter-id"`
	WorkerID     int64         `koanf:"worker-id"`
	Log          LogSettings   `koanf:"log"`
	Retry        RetrySettings `koanf:"retry"`
	Claim        ClaimSettings `koanf:"claim"`
}

type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File 为空时输出到 stderr
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max-size-mb"`
	MaxBackups int    `koanf:"max-backups"`
	MaxAgeDays int    `koanf:"max-age-days"`
}

// RetrySettings 对应 NextIDWithRetry 的等待上限与轮询间隔
type RetrySettings struct {
	MaxWait  time.Duration `koanf:"max-wait"`
	Interval time.Duration `koanf:"interval"`
}

type ClaimSettings struct {
	Backend   string        `koanf:"backend"`
	Endpoints []string      `koanf:"endpoints"`
	Prefix    string        `koanf:"prefix"`
	TTL       time.Duration `koanf:"ttl"`
	// Owner 写入租约 token，为空时取 Pod 名或主机名
	Owner    string `koanf:"owner"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

func Default() Settings {
	return Settings{
		Log: LogSettings{
			Level:      "info",
			Format:     xlog.FormatText,
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,
		},
		Retry: RetrySettings{
			MaxWait:  xsnow.DefaultMaxWaitDuration,
			Interval: xsnow.DefaultRetryInterval,
		},
		Claim: ClaimSettings{
			Prefix: xclaim.DefaultPrefix,
			TTL:    xclaim.DefaultTTL,
		},
	}
}

// Load 读取 path（为空则只用默认值），叠加环境变量与 overrides 后校验。
// 返回的 Config 可交给 xconf.Watch 做热更新。
func Load(path string, overrides map[string]any) (*Settings, xconf.Config, error) {
	var (
		cfg xconf.Config
		err error
	)
	if path == "" {
		cfg, err = xconf.NewFromBytes(nil, xconf.FormatYAML)
	} else {
		cfg, err = xconf.New(path)
	}
	if err != nil {
		return nil, nil, err
	}

	env, err := envOverlay()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Overlay(env); err != nil {
		return nil, nil, err
	}
	if err := cfg.Overlay(overrides); err != nil {
		return nil, nil, err
	}

	s, err := Decode(cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

// Decode 在默认值之上解码 cfg 并校验。
func Decode(cfg xconf.Config) (*Settings, error) {
	s := Default()
	if err := cfg.Unmarshal("", &s); err != nil {
		return nil, err
	}
	s.Claim.Owner = defaultOwner(s.Claim.Owner)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// defaultOwner 未配置时取 Pod 名或主机名；都取不到则保持为空。
func defaultOwner(owner string) string {
	if owner != "" {
		return owner
	}
	if _, name, err := xsnow.SuggestWorkerID(); err == nil {
		return name
	}
	return ""
}

// envOverlay 只覆盖显式设置了的身份分量
func envOverlay() (map[string]any, error) {
	id, dcSet, workerSet, err := xsnow.LookupIdentityEnv()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if dcSet {
		out[KeyDatacenterID] = id.DatacenterID
	}
	if workerSet {
		out[KeyWorkerID] = id.WorkerID
	}
	return out, nil
}

func (s *Settings) Identity() xsnow.Identity {
	return xsnow.Identity{DatacenterID: s.DatacenterID, WorkerID: s.WorkerID}
}

func (s *Settings) Validate() error {
	if err := s.Identity().Validate(); err != nil {
		return err
	}
	if _, err := xlog.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch strings.ToLower(s.Log.Format) {
	case "", xlog.FormatText, xlog.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, s.Log.Format)
	}
	if s.Retry.MaxWait < 0 || s.Retry.Interval < 0 {
		return fmt.Errorf("%w: retry durations must not be negative", ErrInvalid)
	}
	switch s.Claim.Backend {
	case BackendNone:
	case BackendEtcd, BackendRedis:
		if len(s.Claim.Endpoints) == 0 {
			return fmt.Errorf("%w: claim.endpoints required for backend %q", ErrInvalid, s.Claim.Backend)
		}
		if s.Claim.TTL < time.Second {
			return fmt.Errorf("%w: claim.ttl must be at least 1s", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown claim.backend %q", ErrInvalid, s.Claim.Backend)
	}
	return nil
}

// GeneratorOptions 把重试配置转换为 xsnow 选项
func (s *Settings) GeneratorOptions() []xsnow.Option {
	return []xsnow.Option{
		xsnow.WithMaxWaitDuration(s.Retry.MaxWait),
		xsnow.WithRetryInterval(s.Retry.Interval),
	}
}
