package cache

import (
	"time"

	"github.com/ceyewan/zkmonitor/xerrors"
)

// 默认值
const (
	DefaultCapacity = 10000
	// DefaultTTL 未指定 TTL 时使用的过期时间（100 年，视为永久）
	DefaultTTL = 24 * 365 * 100 * time.Hour
)

// Config 缓存配置
type Config struct {
	// Capacity 缓存最大容量（条目数，默认：10000）
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`

	// TTL 条目自写入起的存活时间（默认：永久）
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

func (c *Config) setDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
}

func (c *Config) validate() error {
	if c.Capacity < 0 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "cache capacity %d", c.Capacity)
	}
	if c.TTL < 0 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "cache ttl %s", c.TTL)
	}
	return nil
}
