package cache

import (
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/xerrors"
)

type standaloneCache[K comparable, V any] struct {
	cache   *otter.Cache[K, V]
	counter *stats.Counter
	logger  clog.Logger
}

// newStandalone 创建单机内存缓存实例
func newStandalone[K comparable, V any](cfg *Config, opt options) (Cache[K, V], error) {
	counter := stats.NewCounter()

	// 写入过期：过期时间从写入开始计算，读取不会重置 TTL
	c, err := otter.New(&otter.Options[K, V]{
		MaximumSize:      cfg.Capacity,
		StatsRecorder:    counter,
		ExpiryCalculator: otter.ExpiryWriting[K, V](cfg.TTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build otter cache")
	}

	opt.logger.Debug("cache created", clog.Int("capacity", cfg.Capacity), clog.Duration("ttl", cfg.TTL))
	return &standaloneCache[K, V]{cache: c, counter: counter, logger: opt.logger}, nil
}

func (c *standaloneCache[K, V]) Set(key K, value V) {
	c.cache.Set(key, value)
}

func (c *standaloneCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.cache.Set(key, value)
	if ttl > 0 {
		c.cache.SetExpiresAfter(key, ttl)
	}
}

func (c *standaloneCache[K, V]) Get(key K) (V, bool) {
	return c.cache.GetIfPresent(key)
}

func (c *standaloneCache[K, V]) Delete(key K) {
	c.cache.Invalidate(key)
}

func (c *standaloneCache[K, V]) Len() int {
	return c.cache.EstimatedSize()
}

func (c *standaloneCache[K, V]) Stats() Stats {
	s := c.counter.Snapshot()
	return Stats{Hits: s.Hits, Misses: s.Misses, Evictions: s.Evictions}
}

func (c *standaloneCache[K, V]) Close() error {
	c.cache.StopAllGoroutines()
	return nil
}
