package breaker

import (
	"context"
	"errors"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
)

// circuitBreaker 熔断器实现
type circuitBreaker struct {
	cfg       *Config
	logger    clog.Logger
	fallback  FallbackFunc
	listeners []StateListener

	requests metrics.Counter
	changes  metrics.Counter

	breakers sync.Map // map[string]*gobreaker.CircuitBreaker[any]
}

func newBreaker(cfg *Config, opt options) (Breaker, error) {
	cb := &circuitBreaker{
		cfg:       cfg,
		logger:    opt.logger,
		fallback:  opt.fallback,
		listeners: opt.listeners,
	}

	meter := opt.meter
	if meter == nil {
		meter = metrics.Discard()
	}
	var err error
	if cb.requests, err = meter.Counter(MetricRequestsTotal, "熔断器保护的请求数"); err != nil {
		return nil, err
	}
	if cb.changes, err = meter.Counter(MetricStateChanges, "熔断器状态变更次数"); err != nil {
		return nil, err
	}

	cb.logger.Info("circuit breaker created",
		clog.Int("max_requests", int(cfg.MaxRequests)),
		clog.Duration("timeout", cfg.Timeout),
		clog.Float64("failure_ratio", cfg.FailureRatio),
		clog.Int("minimum_requests", int(cfg.MinimumRequests)))

	return cb, nil
}

// Execute 执行受熔断保护的函数
func (cb *circuitBreaker) Execute(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}

	result, err := cb.getOrCreateBreaker(key).Execute(fn)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		cb.requests.Inc(ctx, metrics.L(LabelKey, key), metrics.L(LabelResult, resultRejected))
		cb.logger.Debug("request rejected by circuit breaker", clog.String("key", key), clog.Error(err))
		if cb.fallback != nil {
			return nil, cb.fallback(ctx, key, ErrOpenState)
		}
		return nil, ErrOpenState
	case err != nil:
		cb.requests.Inc(ctx, metrics.L(LabelKey, key), metrics.L(LabelResult, resultFailure))
	default:
		cb.requests.Inc(ctx, metrics.L(LabelKey, key), metrics.L(LabelResult, resultSuccess))
	}
	return result, err
}

// State 获取指定键的熔断器状态
func (cb *circuitBreaker) State(key string) (State, error) {
	if key == "" {
		return StateClosed, ErrKeyEmpty
	}

	val, ok := cb.breakers.Load(key)
	if !ok {
		return StateClosed, nil
	}
	return fromGobreaker(val.(*gobreaker.CircuitBreaker[any]).State()), nil
}

// getOrCreateBreaker 获取或创建指定键的熔断器
func (cb *circuitBreaker) getOrCreateBreaker(key string) *gobreaker.CircuitBreaker[any] {
	if val, ok := cb.breakers.Load(key); ok {
		return val.(*gobreaker.CircuitBreaker[any])
	}

	settings := gobreaker.Settings{
		Name:          key,
		MaxRequests:   cb.cfg.MaxRequests,
		Interval:      cb.cfg.Interval,
		Timeout:       cb.cfg.Timeout,
		ReadyToTrip:   cb.readyToTrip,
		OnStateChange: cb.onStateChange,
	}

	actual, _ := cb.breakers.LoadOrStore(key, gobreaker.NewCircuitBreaker[any](settings))
	return actual.(*gobreaker.CircuitBreaker[any])
}

// readyToTrip 请求数达到下限且失败率超过阈值时触发熔断
func (cb *circuitBreaker) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cb.cfg.MinimumRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= cb.cfg.FailureRatio
}

func (cb *circuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	f, t := fromGobreaker(from), fromGobreaker(to)
	cb.logger.Info("circuit breaker state changed",
		clog.String("key", name),
		clog.String("from", f.String()),
		clog.String("to", t.String()))
	cb.changes.Inc(context.Background(),
		metrics.L(LabelKey, name),
		metrics.L(LabelFromState, f.String()),
		metrics.L(LabelToState, t.String()))
	for _, l := range cb.listeners {
		l(name, f, t)
	}
}

func fromGobreaker(state gobreaker.State) State {
	switch state {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}
