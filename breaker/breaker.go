// Package breaker 提供按键隔离的熔断器，基于 gobreaker 实现。
//
// zkmonitor 以主机 ID 作为熔断键：某台 ZooKeeper 节点连续失败达到阈值后，
// 熔断器打开，期间对该节点的检查被直接拒绝，节点被标记为 DOWN；
// Timeout 到期后进入半开状态放行少量探测。
//
// 基本使用：
//
//	brk, _ := breaker.New(&breaker.Config{
//		Timeout:         30 * time.Second,
//		FailureRatio:    0.6,
//		MinimumRequests: 3,
//	}, breaker.WithLogger(logger))
//
//	_, err := brk.Execute(ctx, "10.0.0.1:2181", func() (any, error) {
//		return nil, check()
//	})
//	if errors.Is(err, breaker.ErrOpenState) {
//		// 节点被熔断
//	}
package breaker

import (
	"context"
	"time"

	"github.com/ceyewan/zkmonitor/clog"
)

// Breaker 熔断器核心接口
type Breaker interface {
	// Execute 执行受熔断保护的函数，key 为熔断键
	Execute(ctx context.Context, key string, fn func() (any, error)) (any, error)

	// State 获取指定键的熔断器状态，未使用过的键为 StateClosed
	State(key string) (State, error)
}

// State 熔断器状态
type State int

const (
	// StateClosed 闭合状态（正常）
	StateClosed State = iota
	// StateHalfOpen 半开状态（探测恢复）
	StateHalfOpen
	// StateOpen 打开状态（熔断中）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许通过的最大请求数（默认：1）
	MaxRequests uint32 `json:"max_requests" yaml:"max_requests" mapstructure:"max_requests"`

	// Interval 闭合状态下的统计周期（默认：0，不清空统计）
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// Timeout 打开状态持续时间（默认：60s）
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// FailureRatio 失败率阈值（默认：0.6）
	FailureRatio float64 `json:"failure_ratio" yaml:"failure_ratio" mapstructure:"failure_ratio"`

	// MinimumRequests 触发熔断的最小请求数（默认：10）
	MinimumRequests uint32 `json:"minimum_requests" yaml:"minimum_requests" mapstructure:"minimum_requests"`
}

// setDefaults 为零值字段设置默认值
func (c *Config) setDefaults() {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.FailureRatio == 0 {
		c.FailureRatio = 0.6
	}
	if c.MinimumRequests == 0 {
		c.MinimumRequests = 10
	}
}

// validate 验证配置
func (c *Config) validate() error {
	if c.FailureRatio < 0 || c.FailureRatio > 1 {
		return ErrInvalidRatio
	}
	if c.Interval < 0 || c.Timeout < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// New 创建熔断器实例
func New(cfg *Config, opts ...Option) (Breaker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opt := options{logger: clog.Discard()}
	for _, o := range opts {
		o(&opt)
	}

	return newBreaker(cfg, opt)
}
