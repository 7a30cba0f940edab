package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 收到退出信号，配合 errors.Is 使用
	ErrSignal          = errors.New("received signal")
	ErrNilFunc         = errors.New("xrun: nil function")
	ErrNilService      = errors.New("xrun: nil service")
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
)

// SignalError 携带触发退出的信号，errors.Is(err, ErrSignal) 成立。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("received signal %v", e.Signal)
}

func (e *SignalError) Unwrap() error { return ErrSignal }
