package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器，所有实现必须并发安全。
// Close 之后的 Write、Rotate 返回 [ErrClosed]。
type Rotator interface {
	Write(p []byte) (n int, err error)
	Close() error
	// Rotate 立即关闭当前文件并开始新文件
	Rotate() error
}
