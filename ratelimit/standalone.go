package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/xerrors"
)

// limiterWrapper 包装 rate.Limiter 并记录最后访问时间
type limiterWrapper struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (w *limiterWrapper) touch() {
	w.mu.Lock()
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

type standaloneLimiter struct {
	cfg      *StandaloneConfig
	logger   clog.Logger
	checks   metrics.Counter
	limiters sync.Map // map[string]*limiterWrapper
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newStandalone(cfg *StandaloneConfig, opt options) (Limiter, error) {
	checks, err := opt.meter.Counter(MetricAllowTotal, "限流检查次数")
	if err != nil {
		return nil, err
	}

	l := &standaloneLimiter{
		cfg:    cfg,
		logger: opt.logger,
		checks: checks,
		stopCh: make(chan struct{}),
	}
	go l.cleanup()

	l.logger.Debug("standalone rate limiter created",
		clog.Duration("cleanup_interval", cfg.CleanupInterval),
		clog.Duration("idle_timeout", cfg.IdleTimeout))

	return l, nil
}

func (l *standaloneLimiter) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	return l.AllowN(ctx, key, limit, 1)
}

func (l *standaloneLimiter) AllowN(ctx context.Context, key string, limit Limit, n int) (bool, error) {
	if err := validate(key, limit); err != nil {
		return false, err
	}
	if n <= 0 {
		return false, xerrors.Wrap(xerrors.ErrInvalidInput, "ratelimit: n must be positive")
	}

	wrapper := l.getLimiter(key, limit)
	allowed := wrapper.limiter.AllowN(time.Now(), n)
	wrapper.touch()

	l.record(ctx, key, allowed)
	return allowed, nil
}

func (l *standaloneLimiter) Wait(ctx context.Context, key string, limit Limit) error {
	if err := validate(key, limit); err != nil {
		return err
	}

	wrapper := l.getLimiter(key, limit)
	err := wrapper.limiter.Wait(ctx)
	wrapper.touch()

	l.record(ctx, key, err == nil)
	return err
}

func (l *standaloneLimiter) record(ctx context.Context, key string, allowed bool) {
	result := ResultAllowed
	if !allowed {
		result = ResultDenied
	}
	l.checks.Inc(ctx, metrics.L(LabelKey, key), metrics.L(LabelResult, result))
}

func validate(key string, limit Limit) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if limit.Rate <= 0 || limit.Burst <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// getLimiter 获取或创建指定 key 与规则的限流器
func (l *standaloneLimiter) getLimiter(key string, limit Limit) *limiterWrapper {
	cacheKey := fmt.Sprintf("%s:%v:%d", key, limit.Rate, limit.Burst)
	if v, ok := l.limiters.Load(cacheKey); ok {
		return v.(*limiterWrapper)
	}

	wrapper := &limiterWrapper{
		limiter:  rate.NewLimiter(rate.Limit(limit.Rate), limit.Burst),
		lastSeen: time.Now(),
	}
	actual, _ := l.limiters.LoadOrStore(cacheKey, wrapper)
	return actual.(*limiterWrapper)
}

// cleanup 定期清理空闲的限流器
func (l *standaloneLimiter) cleanup() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *standaloneLimiter) evictIdle(now time.Time) int {
	count := 0
	l.limiters.Range(func(key, value any) bool {
		wrapper := value.(*limiterWrapper)
		wrapper.mu.Lock()
		idle := now.Sub(wrapper.lastSeen)
		wrapper.mu.Unlock()

		if idle > l.cfg.IdleTimeout {
			l.limiters.Delete(key)
			count++
		}
		return true
	})
	if count > 0 {
		l.logger.Debug("cleaned up idle limiters", clog.Int("count", count))
	}
	return count
}

// Close 停止后台清理，可重复调用
func (l *standaloneLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	return nil
}
