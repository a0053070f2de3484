// Package ratelimit 提供基于 golang.org/x/time/rate 的单机令牌桶限流。
//
// zkmonitor 用它为一轮轮询中的主机检查限速，避免同时向大量节点发起连接。
//
//	limiter, _ := ratelimit.NewStandalone(nil, ratelimit.WithLogger(logger))
//	defer limiter.Close()
//
//	if err := limiter.Wait(ctx, "poll:prod", ratelimit.Limit{Rate: 20, Burst: 5}); err != nil {
//	    return err
//	}
package ratelimit

import (
	"context"
	"time"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
)

// Limit 定义限流规则（令牌桶算法）
type Limit struct {
	Rate  float64 // 每秒生成的令牌数
	Burst int     // 令牌桶容量
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 尝试获取 1 个令牌（非阻塞）
	Allow(ctx context.Context, key string, limit Limit) (bool, error)

	// AllowN 尝试获取 N 个令牌（非阻塞）
	AllowN(ctx context.Context, key string, limit Limit, n int) (bool, error)

	// Wait 阻塞直到获取 1 个令牌或 ctx 结束
	Wait(ctx context.Context, key string, limit Limit) error

	// Close 停止后台清理
	Close() error
}

// StandaloneConfig 单机限流配置
type StandaloneConfig struct {
	// CleanupInterval 清理空闲限流器的间隔（默认：1 分钟）
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" mapstructure:"cleanup_interval"`

	// IdleTimeout 限流器空闲超时时间（默认：5 分钟）
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

func (c *StandaloneConfig) setDefaults() {
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
}

// NewStandalone 创建单机限流器，cfg 为 nil 时使用默认配置
func NewStandalone(cfg *StandaloneConfig, opts ...Option) (Limiter, error) {
	if cfg == nil {
		cfg = &StandaloneConfig{}
	}
	cfg.setDefaults()

	opt := options{logger: clog.Discard(), meter: metrics.Discard()}
	for _, o := range opts {
		o(&opt)
	}

	return newStandalone(cfg, opt)
}
