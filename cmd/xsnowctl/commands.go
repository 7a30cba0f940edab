package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xsnow/internal/settings"
	"github.com/omeyang/xsnow/pkg/config/xconf"
	"github.com/omeyang/xsnow/pkg/observability/xlog"
	"github.com/omeyang/xsnow/pkg/observability/xmetrics"
	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

// 全局选项名
const (
	flagConfig         = "config"
	flagDatacenterID   = "datacenter-id"
	flagWorkerID       = "worker-id"
	flagDeriveWorkerID = "derive-worker-id"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
)

// 输出格式
const (
	formatDecimal = "dec"
	formatBase36  = "base36"
	formatJSON    = "json"
)

// --derive-worker-id 取值
const (
	deriveByName = "name"
	deriveByIP   = "ip"
)

const maxNextCount = 1_000_000

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xsnowctl",
		Usage:     "雪花 ID 生成与解析工具",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "配置文件路径（yaml/json）",
			},
			&cli.Int64Flag{
				Name:  flagDatacenterID,
				Usage: "数据中心 ID（0..31），覆盖配置文件与环境变量",
			},
			&cli.Int64Flag{
				Name:  flagWorkerID,
				Usage: "工作节点 ID（0..31），覆盖配置文件与环境变量",
			},
			&cli.StringFlag{
				Name:  flagDeriveWorkerID,
				Usage: "推导工作节点 ID：name 取 Pod 名或主机名哈希，ip 取私有地址低位（均有碰撞风险）",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "日志级别：debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "日志格式：text, json",
			},
		},
		Commands: []*cli.Command{
			nextCommand(),
			decodeCommand(),
			composeCommand(),
			claimCommand(),
			versionCommand(),
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, _ error) {
			// 退出码统一由 run 处理
		},
	}
}

// overridesFromFlags 只收集显式给出的选项，未给出的保留配置文件与环境变量的值。
func overridesFromFlags(cmd *cli.Command) (map[string]any, error) {
	out := map[string]any{}
	if cmd.IsSet(flagDeriveWorkerID) {
		if cmd.IsSet(flagWorkerID) {
			return nil, usagef("--%s 与 --%s 不能同时使用", flagDeriveWorkerID, flagWorkerID)
		}
		worker, err := deriveWorkerID(cmd.String(flagDeriveWorkerID))
		if err != nil {
			return nil, err
		}
		out[settings.KeyWorkerID] = worker
	}
	if cmd.IsSet(flagDatacenterID) {
		out[settings.KeyDatacenterID] = cmd.Int64(flagDatacenterID)
	}
	if cmd.IsSet(flagWorkerID) {
		out[settings.KeyWorkerID] = cmd.Int64(flagWorkerID)
	}
	if cmd.IsSet(flagLogLevel) {
		out[settings.KeyLogLevel] = cmd.String(flagLogLevel)
	}
	if cmd.IsSet(flagLogFormat) {
		out[settings.KeyLogFormat] = cmd.String(flagLogFormat)
	}
	return out, nil
}

func deriveWorkerID(mode string) (int64, error) {
	switch mode {
	case deriveByName:
		worker, _, err := xsnow.SuggestWorkerID()
		return worker, err
	case deriveByIP:
		worker, _, err := xsnow.SuggestWorkerIDFromAddr()
		return worker, err
	default:
		return 0, usagef("--%s 只支持 %s 或 %s", flagDeriveWorkerID, deriveByName, deriveByIP)
	}
}

// loadSettings 校验失败视为参数错误。
func loadSettings(cmd *cli.Command) (*settings.Settings, xconf.Config, error) {
	overrides, err := overridesFromFlags(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, cfg, err := settings.Load(cmd.String(flagConfig), overrides)
	if err != nil {
		if errors.Is(err, xsnow.ErrInvalidIdentity) || errors.Is(err, settings.ErrInvalid) {
			return nil, nil, &usageError{msg: err.Error()}
		}
		return nil, nil, err
	}
	return s, cfg, nil
}

// =============================================================================
// next
// =============================================================================

func nextCommand() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "生成 ID",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "生成数量",
				Value:   1,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "输出格式：dec, base36, json",
				Value:   formatDecimal,
			},
			&cli.BoolFlag{
				Name:  "no-retry",
				Usage: "时钟回拨时立即失败，不等待时钟追回",
			},
		},
		Action: nextAction,
	}
}

func nextAction(ctx context.Context, cmd *cli.Command) error {
	count := cmd.Int64("count")
	if count < 1 || count > maxNextCount {
		return usagef("--count 需在 [1, %d] 内", maxNextCount)
	}
	out, err := newIDWriter(cmd.Root().Writer, cmd.String("format"))
	if err != nil {
		return err
	}

	s, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, cleanup, err := s.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	obs, err := xmetrics.NewOTelObserver(xmetrics.WithInstrumentationName("xsnowctl"))
	if err != nil {
		return err
	}
	gen, err := xsnow.NewFromIdentity(s.Identity(), append(s.GeneratorOptions(), xsnow.WithObserver(obs))...)
	if err != nil {
		return err
	}

	next := gen.NextIDWithRetry
	if cmd.Bool("no-retry") {
		next = func(context.Context) (xsnow.ID, error) { return gen.NextID() }
	}

	start := time.Now()
	for range count {
		id, err := next(ctx)
		if err != nil {
			logger.Error(ctx, "generate id failed", xlog.Err(err))
			return err
		}
		if err := out.write(id); err != nil {
			return err
		}
	}
	logger.Debug(ctx, "ids generated", xlog.Count(count), xlog.Duration(time.Since(start)))
	return nil
}

// idRecord json 输出的一行
type idRecord struct {
	ID     int64  `json:"id"`
	Base36 string `json:"base36"`
	Time   string `json:"time"`
	xsnow.Components
}

func newIDRecord(id xsnow.ID) idRecord {
	return idRecord{
		ID:         id.Int64(),
		Base36:     id.String(),
		Time:       id.Time().Format(time.RFC3339Nano),
		Components: id.Components(),
	}
}

type idWriter struct {
	w      io.Writer
	format string
	enc    *json.Encoder
}

func newIDWriter(w io.Writer, format string) (*idWriter, error) {
	switch format {
	case formatDecimal, formatBase36:
		return &idWriter{w: w, format: format}, nil
	case formatJSON:
		return &idWriter{w: w, format: format, enc: json.NewEncoder(w)}, nil
	default:
		return nil, usagef("未知输出格式 %q（可选 dec, base36, json）", format)
	}
}

func (o *idWriter) write(id xsnow.ID) error {
	var err error
	switch o.format {
	case formatBase36:
		_, err = fmt.Fprintln(o.w, id.String())
	case formatJSON:
		err = o.enc.Encode(newIDRecord(id))
	default:
		_, err = fmt.Fprintln(o.w, id.Decimal())
	}
	return err
}

// =============================================================================
// decode
// =============================================================================

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "拆分 ID 为时间、数据中心、工作节点与序列号",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "base36",
				Usage: "参数按 base36 解析（默认十进制）",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "以 JSON 行输出",
			},
		},
		Action: decodeAction,
	}
}

func decodeAction(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return usagef("decode 需要至少一个 ID")
	}
	parse := xsnow.ParseDecimal
	if cmd.Bool("base36") {
		parse = xsnow.ParseID
	}

	w := cmd.Root().Writer
	enc := json.NewEncoder(w)
	for _, arg := range args {
		id, err := parse(arg)
		if err != nil {
			return usagef("%s: %v", arg, err)
		}
		c, err := xsnow.Decompose(id)
		if err != nil {
			return usagef("%s: %v", arg, err)
		}
		if cmd.Bool("json") {
			if err := enc.Encode(newIDRecord(id)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\ttime=%s datacenter=%d worker=%d sequence=%d\n",
			id.Decimal(), c.Time().Format(time.RFC3339Nano), c.DatacenterID, c.WorkerID, c.Sequence); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// compose
// =============================================================================

func composeCommand() *cli.Command {
	return &cli.Command{
		Name:  "compose",
		Usage: "由分量组装 ID（数据中心与工作节点取全局选项）",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "time",
				Usage: "RFC3339 时间，默认当前时间",
			},
			&cli.Int64Flag{
				Name:  "timestamp",
				Usage: "自 Epoch 起的毫秒数，与 --time 互斥",
			},
			&cli.Int64Flag{
				Name:  "sequence",
				Usage: "序列号（0..4095）",
			},
		},
		Action: composeAction,
	}
}

func composeAction(_ context.Context, cmd *cli.Command) error {
	if cmd.IsSet("time") && cmd.IsSet("timestamp") {
		return usagef("--time 与 --timestamp 不能同时使用")
	}

	s, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ts := cmd.Int64("timestamp")
	if !cmd.IsSet("timestamp") {
		t := time.Now()
		if cmd.IsSet("time") {
			t, err = time.Parse(time.RFC3339Nano, cmd.String("time"))
			if err != nil {
				return usagef("--time: %v", err)
			}
		}
		ts = t.UnixMilli() - xsnow.Epoch
	}

	id, err := xsnow.Compose(xsnow.Components{
		Timestamp:    ts,
		DatacenterID: s.DatacenterID,
		WorkerID:     s.WorkerID,
		Sequence:     cmd.Int64("sequence"),
	})
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, id.Decimal())
	return err
}

// =============================================================================
// version
// =============================================================================

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "显示版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			fmt.Fprintf(w, "xsnowctl %s\n", Version)
			fmt.Fprintf(w, "  commit: %s\n", GitCommit)
			fmt.Fprintf(w, "  built:  %s\n", BuildTime)
			fmt.Fprintf(w, "  epoch:  %s (%s)\n",
				strconv.FormatInt(xsnow.Epoch, 10), time.UnixMilli(xsnow.Epoch).UTC().Format(time.RFC3339))
			return nil
		},
	}
}
