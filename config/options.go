package config

import "github.com/ceyewan/zkmonitor/clog"

// Option 配置加载器选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置日志记录器，未设置时静默
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("config")
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
