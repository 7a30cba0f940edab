package xetcd

import "errors"

var (
	ErrNilConfig   = errors.New("xetcd: config is nil")
	ErrNoEndpoints = errors.New("xetcd: no endpoints configured")
	// ErrInvalidEndpoint endpoint 应为 host:port
	ErrInvalidEndpoint = errors.New("xetcd: invalid endpoint format, expected host:port")
	ErrClientClosed    = errors.New("xetcd: client is closed")
)
