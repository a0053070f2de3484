package ratelimit

import "github.com/ceyewan/zkmonitor/xerrors"

// 错误定义
var (
	// ErrKeyEmpty 限流键为空
	ErrKeyEmpty = xerrors.New("ratelimit: key is empty")

	// ErrInvalidLimit 限流规则无效
	ErrInvalidLimit = xerrors.New("ratelimit: invalid limit")
)
