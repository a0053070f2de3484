package notify

import (
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
)

// Option 发布者选项
type Option func(*options)

type options struct {
	logger         clog.Logger
	meter          metrics.Meter
	tracerProvider oteltrace.TracerProvider
}

// WithLogger 设置 Logger，自动追加 "notify" 命名空间
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("notify")
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

// WithTracerProvider 设置 TracerProvider，默认使用全局 provider
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

func applyOptions(opts ...Option) options {
	o := options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
