// Package cache 提供基于 otter 的进程内缓存。
//
// zkmonitor 用它保存每台主机最近一次检查的结果：条目按写入时间过期，
// 读取不会续期，因此长时间未被检查的主机会自然从缓存中消失。
// 缓存只保留最新值，不保存历史。
//
// 基本使用：
//
//	reports, _ := cache.New[string, Report](&cache.Config{
//	    Capacity: 1024,
//	    TTL:      30 * time.Second,
//	}, cache.WithLogger(logger))
//	defer reports.Close()
//
//	reports.Set("10.0.0.1:2181", report)
//	if r, ok := reports.Get("10.0.0.1:2181"); ok {
//	    // ...
//	}
package cache

import "time"

// Cache 进程内键值缓存，并发安全
//
// 存入的是原始值，不做拷贝；包含 map/slice 的值取出后应视为只读。
type Cache[K comparable, V any] interface {
	// Set 写入值，使用配置的默认 TTL
	Set(key K, value V)

	// SetWithTTL 写入值并单独指定 TTL，ttl <= 0 时使用默认 TTL
	SetWithTTL(key K, value V, ttl time.Duration)

	// Get 读取未过期的值
	Get(key K) (V, bool)

	// Delete 删除值
	Delete(key K)

	// Len 返回估计的条目数
	Len() int

	// Stats 返回命中统计
	Stats() Stats

	// Close 停止后台 goroutine
	Close() error
}

// Stats 缓存命中统计
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRatio 命中率，无请求时为 0
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New 创建缓存实例
func New[K comparable, V any](cfg *Config, opts ...Option) (Cache[K, V], error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newStandalone[K, V](cfg, applyOptions(opts...))
}
