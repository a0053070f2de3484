package breaker

import "github.com/ceyewan/zkmonitor/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("breaker: config is nil")

	// ErrKeyEmpty 熔断键为空
	ErrKeyEmpty = xerrors.New("breaker: key is empty")

	// ErrOpenState 熔断器处于打开状态或半开状态下请求过多
	ErrOpenState = xerrors.New("breaker: circuit breaker is open")

	// ErrInvalidRatio 失败率不在 [0, 1] 范围内
	ErrInvalidRatio = xerrors.New("breaker: failure ratio must be within [0, 1]")

	// ErrInvalidDuration 时长为负数
	ErrInvalidDuration = xerrors.New("breaker: durations must not be negative")
)
