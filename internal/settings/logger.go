package settings

import (
	"context"
	"log/slog"

	"github.com/omeyang/xsnow/pkg/config/xconf"
	"github.com/omeyang/xsnow/pkg/observability/xlog"
	"github.com/omeyang/xsnow/pkg/observability/xrotate"
)

// NewLogger 按 log 配置构建 logger，每条日志带节点身份。
func (s *Settings) NewLogger() (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetLevelString(s.Log.Level).
		SetFormat(s.Log.Format).
		SetStaticAttrs(xlog.Node(s.DatacenterID, s.WorkerID)...)
	if s.Log.File != "" {
		b = b.SetRotation(s.Log.File,
			xrotate.WithMaxSize(s.Log.MaxSizeMB),
			xrotate.WithMaxBackups(s.Log.MaxBackups),
			xrotate.WithMaxAge(s.Log.MaxAgeDays),
		)
	}
	return b.Build()
}

// WatchLogLevel 配置文件变更后重新解码，只把 log.level 应用到 leveler；
// 身份等其他字段需要重启才生效。
func WatchLogLevel(cfg xconf.Config, leveler xlog.LoggerWithLevel) (*xconf.Watcher, error) {
	return xconf.Watch(cfg, func(c xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			leveler.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		s, err := Decode(c)
		if err != nil {
			leveler.Warn(ctx, "reloaded config rejected", xlog.Err(err))
			return
		}
		level, _ := xlog.ParseLevel(s.Log.Level)
		if level != leveler.GetLevel() {
			leveler.SetLevel(level)
			leveler.Info(ctx, "log level changed", slog.String("level", level.String()))
		}
	})
}
