package xclaim

import "errors"

var (
	// ErrIdentityTaken 身份已被其他持有者登记
	ErrIdentityTaken = errors.New("xclaim: identity is held by another owner")
	// ErrNoFreeWorker 数据中心内 32 个工作节点 ID 都已被占用
	ErrNoFreeWorker = errors.New("xclaim: no free worker id in datacenter")
	// ErrLeaseLost 租约已过期或被他人接管，持有者必须停止发号
	ErrLeaseLost   = errors.New("xclaim: lease lost")
	ErrNilClient   = errors.New("xclaim: client is nil")
	ErrNilContext  = errors.New("xclaim: nil context")
	ErrClosed      = errors.New("xclaim: claimer is closed")
	ErrInvalidTTL  = errors.New("xclaim: ttl must be at least 1s")
	ErrEmptyPrefix = errors.New("xclaim: key prefix is empty")
)
