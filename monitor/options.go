package monitor

import (
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/notify"
	"github.com/ceyewan/zkmonitor/ratelimit"
)

// Option 监控器选项
type Option func(*options)

type options struct {
	logger    clog.Logger
	meter     metrics.Meter
	publisher notify.Publisher
	limiter   ratelimit.Limiter
}

// WithLogger 设置 Logger，自动追加 "monitor" 命名空间
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("monitor")
		}
	}
}

// WithMeter 设置指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithPublisher 设置健康状态变化事件的发布者
func WithPublisher(p notify.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithLimiter 使用外部限流器，仅在 Rate > 0 时生效；未设置且 Rate > 0 时监控器自行创建
func WithLimiter(l ratelimit.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}
