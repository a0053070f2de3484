package zk

import (
	"context"
	"net"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/zkmonitor/breaker"
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
)

// Resolver 将主机名解析为地址列表，*net.Resolver 满足该接口
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Dialer 建立网络连接，*net.Dialer 满足该接口
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option 主机选项
type Option func(*options)

type options struct {
	logger         clog.Logger
	meter          metrics.Meter
	tracerProvider oteltrace.TracerProvider
	breaker        breaker.Breaker
	resolver       Resolver
	dialer         Dialer
	updateInfo     bool
}

// WithLogger 设置 Logger，自动追加 "zk" 命名空间
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("zk")
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

// WithBreaker 为网络执行启用熔断，以主机 ID 为键；熔断打开时命令结果为 StatusDown
func WithBreaker(b breaker.Breaker) Option {
	return func(o *options) {
		o.breaker = b
	}
}

// WithResolver 替换地址解析器
func WithResolver(r Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithDialer 替换连接拨号器
func WithDialer(d Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithoutInfoUpdate 解析成功的 srvr/stat 结果不再合并到主机的 Info 中
func WithoutInfoUpdate() Option {
	return func(o *options) {
		o.updateInfo = false
	}
}

func applyOptions(opts ...Option) options {
	o := options{
		logger:     clog.Discard(),
		meter:      metrics.Discard(),
		resolver:   net.DefaultResolver,
		dialer:     &net.Dialer{},
		updateInfo: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
