package breaker

import (
	"context"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

// FallbackFunc 降级函数，熔断器打开时调用；返回 nil 表示降级成功
type FallbackFunc func(ctx context.Context, key string, err error) error

// StateListener 熔断状态变更回调
type StateListener func(key string, from, to State)

type options struct {
	logger    clog.Logger
	meter     metrics.Meter
	fallback  FallbackFunc
	listeners []StateListener
}

// WithLogger 设置 Logger，内部会自动添加 namespace: "breaker"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithFallback 设置降级函数
func WithFallback(fallback FallbackFunc) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}

// WithStateListener 注册状态变更回调，回调在 gobreaker 的锁内同步执行，不应阻塞
func WithStateListener(l StateListener) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}
