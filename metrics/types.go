// Package metrics 为 zkmonitor 提供指标收集能力。
// 基于 OpenTelemetry 构建，通过 Prometheus 格式暴露 Counter、Gauge、Histogram。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{Enabled: true, Port: 9090, Path: "/metrics"})
//	if err != nil {
//	    return err
//	}
//	defer meter.Shutdown(ctx)
//
//	counter, _ := meter.Counter("zk_command_total", "四字命令执行次数")
//	counter.Inc(ctx, metrics.L("command", "srvr"), metrics.L("outcome", "success"))
package metrics

import (
	"context"
	"net/http"
)

// Counter 计数器，只增不减
type Counter interface {
	// Inc 将计数器增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值，负数会被忽略
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘，记录可任意增减的瞬时值
type Gauge interface {
	// Set 覆盖当前值
	Set(ctx context.Context, val float64, labels ...Label)

	// Inc 将 gauge 增加 1
	Inc(ctx context.Context, labels ...Label)

	// Dec 将 gauge 减少 1
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 直方图，记录值的分布
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标创建工厂
//
// Meter 创建的指标是并发安全的。
type Meter interface {
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 采集 handler
	Handler() http.Handler

	// Shutdown 停止 HTTP 服务器并刷新所有指标
	Shutdown(ctx context.Context) error
}

// MetricOption 指标配置选项函数类型
type MetricOption func(*MetricOptions)

// MetricOptions 指标选项
type MetricOptions struct {
	// Unit 指标单位，使用 UCUM 代码，如 "s"、"By"
	Unit string

	// Buckets 直方图桶边界，为空时使用默认值
	Buckets []float64
}

// WithUnit 设置指标的单位
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets ...float64) MetricOption {
	return func(o *MetricOptions) {
		o.Buckets = buckets
	}
}
