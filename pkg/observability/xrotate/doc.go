// Package xrotate 提供按大小轮转的日志文件输出，基于 lumberjack。
//
//	r, err := xrotate.NewLumberjack("/var/log/xsnow/xsnow.log",
//	    xrotate.WithMaxSize(100),
//	    xrotate.WithMaxBackups(3),
//	)
//	defer r.Close()
//
// Rotator 实现 io.WriteCloser，可直接作为 xlog 的输出目标。
package xrotate
