// xsnowctl 是 xsnow 的命令行工具。
//
// 用法：
//
//	xsnowctl [全局选项] <命令> [参数...]
//
// 命令：
//
//	next     生成 ID
//	decode   拆分 ID
//	compose  由分量组装 ID
//	claim    在 etcd/redis 上认领节点身份并保持租约
//	version  显示版本信息
//
// 全局选项：
//
//	--config          配置文件（yaml/json）
//	--datacenter-id   数据中心 ID（0..31）
//	--worker-id       工作节点 ID（0..31）
//	--derive-worker-id  由 name 或 ip 推导工作节点 ID
//	--log-level       日志级别
//	--log-format      日志格式（text/json）
//
// 退出码：0 成功，1 运行错误，2 参数错误，130 二次中断。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// 版本信息（通过 ldflags 注入）
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const (
	exitOK        = 0
	exitRuntime   = 1
	exitUsage     = 2
	exitInterrupt = 130
)

// exitError 携带退出码，静默退出（错误信息已由命令自行输出）。
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// isCLIUsageError 识别 urfave/cli 自身的解析错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{
		"flag provided but not defined",
		"flag needs an argument",
		"invalid value",
		"No help topic for",
		"Required flag",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func main() {
	ctx, stop := setupSignalHandler()
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	err := app.Run(ctx, args)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "参数错误: %s\n", ue.msg)
		return exitUsage
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return exitUsage
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return exitRuntime
}

// setupSignalHandler 第一次 SIGINT/SIGTERM 取消 ctx，第二次直接退出。
// claim 命令自身经 xrun 处理信号并释放租约，这里只兜底非阻塞命令。
func setupSignalHandler() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigCh:
			signal.Stop(sigCh)
			os.Exit(exitInterrupt)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
