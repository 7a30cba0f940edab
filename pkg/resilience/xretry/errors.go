package xretry

import "errors"

var (
	// ErrNilRetryer Retryer 为 nil。
	ErrNilRetryer = errors.New("xretry: nil retryer")
	// ErrNilContext context 参数为 nil。
	ErrNilContext = errors.New("xretry: nil context")
	// ErrNilFunc 待执行函数为 nil。
	ErrNilFunc = errors.New("xretry: nil func")
)

// RetryableError 自带可重试标记的错误。
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 标记不应重试的错误。
type PermanentError struct {
	Err error
}

// NewPermanentError 包装 err 为永久性错误。
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }
func (e *PermanentError) Retryable() bool { return false }

// TemporaryError 标记应当重试的错误。
type TemporaryError struct {
	Err error
}

// NewTemporaryError 包装 err 为临时性错误。
func NewTemporaryError(err error) *TemporaryError {
	return &TemporaryError{Err: err}
}

func (e *TemporaryError) Error() string {
	if e.Err == nil {
		return "temporary error"
	}
	return e.Err.Error()
}

func (e *TemporaryError) Unwrap() error { return e.Err }
func (e *TemporaryError) Retryable() bool { return true }

// IsRetryable nil 返回 false；实现 RetryableError 的按其标记；其余错误视为可重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}

// IsPermanent 与 IsRetryable 相反，nil 返回 false。
func IsPermanent(err error) bool {
	return err != nil && !IsRetryable(err)
}
