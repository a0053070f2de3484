// Package monitor 周期性检查集群中的每台主机，记录最近一次结果并在健康状态变化时发布事件。
//
// 每轮检查按集群插入顺序遍历主机，并发数受 Concurrency 限制，可选地按 Rate 限速。
// 结果写入带 TTL 的缓存，只保留最新一次，不保存历史。
//
//	mon, _ := monitor.New(cluster, &monitor.Config{Interval: 10 * time.Second},
//	    monitor.WithLogger(logger), monitor.WithMeter(meter), monitor.WithPublisher(pub))
//	_ = mon.Start(ctx)
//	defer mon.Close()
package monitor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ceyewan/zkmonitor/cache"
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/notify"
	"github.com/ceyewan/zkmonitor/ratelimit"
	"github.com/ceyewan/zkmonitor/xerrors"
	"github.com/ceyewan/zkmonitor/zk"
)

// ErrAlreadyStarted 监控器已在运行
var ErrAlreadyStarted = xerrors.New("monitor: already started")

// Report 一台主机最近一次检查的结果
type Report struct {
	Host      zk.HostSnapshot `json:"host"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Latency   time.Duration   `json:"latency"`
	CheckedAt time.Time       `json:"checked_at"`
}

// OK 报告检查是否成功
func (r Report) OK() bool {
	return r.Status == zk.StatusSuccess.String()
}

// Monitor 集群轮询器
type Monitor struct {
	cluster *zk.Cluster
	cfg     *Config
	command zk.Command

	logger       clog.Logger
	publisher    notify.Publisher
	limiter      ratelimit.Limiter
	ownedLimiter bool
	reports      cache.Cache[string, Report]

	health      metrics.Gauge
	polls       metrics.Counter
	pollLatency metrics.Histogram
	transitions metrics.Counter

	// pollMu 保证同一时刻只有一轮检查，健康状态的前后值才能一一对应
	pollMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	closing sync.Once
}

// New 创建监控器
func New(cluster *zk.Cluster, cfg *Config, opts ...Option) (*Monitor, error) {
	if cluster == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "cluster is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	command, _ := zk.ParseCommand(cfg.Command)

	o := options{
		logger:    clog.Discard(),
		meter:     metrics.Discard(),
		publisher: notify.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Monitor{
		cluster:   cluster,
		cfg:       cfg,
		command:   command,
		logger:    o.logger.With(clog.String("cluster", cluster.Name())),
		publisher: o.publisher,
		limiter:   o.limiter,
	}

	var err error
	if cfg.Rate == 0 {
		// 不限速时忽略注入的限流器
		m.limiter = nil
	} else if m.limiter == nil {
		if m.limiter, err = ratelimit.NewStandalone(nil, ratelimit.WithLogger(o.logger), ratelimit.WithMeter(o.meter)); err != nil {
			return nil, err
		}
		m.ownedLimiter = true
	}

	if m.reports, err = cache.New[string, Report](&cache.Config{TTL: cfg.SnapshotTTL}, cache.WithLogger(o.logger)); err != nil {
		return nil, err
	}
	if m.health, err = o.meter.Gauge(MetricHostHealth, "主机健康状态"); err != nil {
		return nil, err
	}
	if m.polls, err = o.meter.Counter(MetricPollTotal, "完成的轮询轮数"); err != nil {
		return nil, err
	}
	if m.pollLatency, err = o.meter.Histogram(MetricPollDuration, "单轮轮询耗时", metrics.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.transitions, err = o.meter.Counter(MetricTransitionTotal, "健康状态变化次数"); err != nil {
		return nil, err
	}
	return m, nil
}

// Poll 对集群中的所有主机执行一轮检查，结果按主机插入顺序返回
//
// 并发调用会依次执行。
func (m *Monitor) Poll(ctx context.Context) []Report {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	start := time.Now()
	hosts := m.cluster.Hosts()
	reports := make([]Report, len(hosts))

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for i, h := range hosts {
		g.Go(func() error {
			reports[i] = m.check(ctx, h)
			return nil
		})
	}
	_ = g.Wait()

	cluster := metrics.L(metrics.LabelCluster, m.cluster.Name())
	m.polls.Inc(ctx, cluster)
	m.pollLatency.Record(ctx, time.Since(start).Seconds(), cluster)
	m.logger.DebugContext(ctx, "poll finished", clog.Int("hosts", len(hosts)), clog.Duration("elapsed", time.Since(start)))
	return reports
}

func (m *Monitor) check(ctx context.Context, h *zk.Host) Report {
	prev := h.Health()

	if m.limiter != nil {
		limit := ratelimit.Limit{Rate: m.cfg.Rate, Burst: m.cfg.Burst}
		if err := m.limiter.Wait(ctx, "poll:"+m.cluster.Name(), limit); err != nil {
			// 未发起检查，健康状态保持不变
			return Report{
				Host:      h.Snapshot(),
				Status:    zk.StatusError.String(),
				Error:     xerrors.Wrap(err, "rate limit").Error(),
				CheckedAt: time.Now(),
			}
		}
	}

	start := time.Now()
	out := h.Run(ctx, m.command)
	report := Report{
		Host:      h.Snapshot(),
		Status:    out.Status.String(),
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
	}
	if out.Err != nil {
		report.Error = out.Err.Error()
	}

	m.reports.Set(h.ID(), report)
	m.health.Set(ctx, float64(report.Host.Health),
		metrics.L(metrics.LabelCluster, m.cluster.Name()),
		metrics.L(metrics.LabelHost, h.ID()))

	if cur := report.Host.Health; cur != prev {
		m.transition(ctx, report.Host, prev, cur, out.Err)
	}
	return report
}

func (m *Monitor) transition(ctx context.Context, snap zk.HostSnapshot, from, to zk.Health, cause error) {
	m.logger.InfoContext(ctx, "host health changed",
		clog.String("host", snap.ID),
		clog.String("from", from.String()),
		clog.String("to", to.String()),
		clog.Error(cause))
	m.transitions.Inc(ctx,
		metrics.L(metrics.LabelCluster, m.cluster.Name()),
		metrics.L(LabelTo, to.String()))

	if err := m.publisher.Publish(ctx, notify.NewEvent(m.cluster.Name(), snap, from, to, cause)); err != nil {
		m.logger.WarnContext(ctx, "publish health event failed", clog.String("host", snap.ID), clog.Error(err))
	}
}

// Start 立即执行一轮检查，之后每隔 Interval 执行一次，直到 ctx 结束或调用 Stop
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		m.Poll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Poll(ctx)
			}
		}
	}()

	m.logger.Info("monitor started",
		clog.Duration("interval", m.cfg.Interval),
		clog.String("command", m.command.String()),
		clog.Int("hosts", m.cluster.Len()))
	return nil
}

// Stop 停止轮询并等待进行中的检查结束，可重复调用
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("monitor stopped")
}

// Close 停止轮询并释放缓存与自建的限流器
func (m *Monitor) Close() error {
	m.Stop()
	var errs []error
	m.closing.Do(func() {
		errs = append(errs, m.reports.Close())
		if m.ownedLimiter {
			errs = append(errs, m.limiter.Close())
		}
	})
	return xerrors.Combine(errs...)
}

// Report 返回主机最近一次未过期的检查结果，name 的比较规则与 zk.Cluster.Host 相同
func (m *Monitor) Report(name string) (Report, bool) {
	h, ok := m.cluster.Host(name)
	if !ok {
		return Report{}, false
	}
	return m.reports.Get(h.ID())
}

// Reports 按主机插入顺序返回所有未过期的检查结果
func (m *Monitor) Reports() []Report {
	hosts := m.cluster.Hosts()
	out := make([]Report, 0, len(hosts))
	for _, h := range hosts {
		if r, ok := m.reports.Get(h.ID()); ok {
			out = append(out, r)
		}
	}
	return out
}
