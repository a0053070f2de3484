package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/zkmonitor/notify"
	"github.com/ceyewan/zkmonitor/ratelimit"
	"github.com/ceyewan/zkmonitor/testkit"
	"github.com/ceyewan/zkmonitor/zk"
)

const (
	srvrFollower = "Zookeeper version: 3.4.6-1569965, built on 02/20/2014 09:09 GMT\n" +
		"Latency min/avg/max: 0/0/12\nReceived: 2144\nSent: 2143\nConnections: 4\n" +
		"Outstanding: 0\nZxid: 0x40000002a\nMode: follower\nNode count: 12\n"
	srvrBroken = "Zookeeper version: 3.4.6\nMode: observer\n"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func newCluster(t *testing.T, servers ...*testkit.Server) *zk.Cluster {
	t.Helper()
	c := zk.NewCluster("test-" + testkit.NewID())
	for _, s := range servers {
		h, err := zk.NewHost(&zk.HostConfig{Addr: s.Addr(), Port: s.Port(), DC: "dc1"})
		require.NoError(t, err)
		require.NoError(t, c.AddHost(h))
	}
	return c
}

func newMonitor(t *testing.T, c *zk.Cluster, cfg *Config, opts ...Option) *Monitor {
	t.Helper()
	kit := testkit.NewKit(t)
	opts = append([]Option{WithLogger(kit.Logger), WithMeter(kit.Meter)}, opts...)
	m, err := New(c, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// TestNew 测试配置默认值与非法配置
func TestNew(t *testing.T) {
	c := zk.NewCluster("prod")

	t.Run("默认值", func(t *testing.T) {
		cfg := &Config{}
		m := newMonitor(t, c, cfg)
		assert.Equal(t, 10*time.Second, cfg.Interval)
		assert.Equal(t, 30*time.Second, cfg.SnapshotTTL)
		assert.Equal(t, 8, cfg.Concurrency)
		assert.Equal(t, zk.CommandSrvr, m.command)
		assert.Nil(t, m.limiter)
	})

	t.Run("命令不区分大小写", func(t *testing.T) {
		m := newMonitor(t, c, &Config{Command: "STAT"})
		assert.Equal(t, zk.CommandStat, m.command)
	})

	t.Run("设置 Rate 时自建限流器", func(t *testing.T) {
		m := newMonitor(t, c, &Config{Rate: 5})
		assert.NotNil(t, m.limiter)
		assert.True(t, m.ownedLimiter)
	})

	tests := []struct {
		name    string
		cluster *zk.Cluster
		cfg     *Config
	}{
		{"集群为空", nil, &Config{}},
		{"未知命令", c, &Config{Command: "nope"}},
		{"负并发", c, &Config{Concurrency: -1}},
		{"负间隔", c, &Config{Interval: -time.Second}},
		{"负速率", c, &Config{Rate: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cluster, tt.cfg)
			assert.Error(t, err)
		})
	}
}

// TestPoll_Transitions 测试每次健康状态变化只发布一次事件
func TestPoll_Transitions(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrFollower}})
	c := newCluster(t, s)
	rec := &recorder{}
	m := newMonitor(t, c, &Config{}, WithPublisher(rec))
	ctx := testkit.NewContext(t, 10*time.Second)

	reports := m.Poll(ctx)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].OK())
	assert.Equal(t, zk.HealthHealthy, reports[0].Host.Health)
	assert.Equal(t, "FOLLOWER", reports[0].Host.Info[zk.InfoMode])
	assert.Empty(t, reports[0].Error)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, zk.HealthUnchecked.String(), events[0].From)
	assert.Equal(t, zk.HealthHealthy.String(), events[0].To)
	assert.Equal(t, c.Name(), events[0].Cluster)
	assert.Equal(t, "dc1", events[0].DC)

	// 状态不变时不再发布
	m.Poll(ctx)
	assert.Len(t, rec.Events(), 1)

	s.SetResponse("srvr", testkit.Response{Body: srvrBroken})
	reports = m.Poll(ctx)
	assert.Equal(t, zk.StatusError.String(), reports[0].Status)
	assert.NotEmpty(t, reports[0].Error)

	events = rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, zk.HealthHealthy.String(), events[1].From)
	assert.Equal(t, zk.HealthError.String(), events[1].To)
	assert.NotEmpty(t, events[1].Error)

	// 连接失败仍为 ERROR，不产生新事件
	s.Close()
	m.Poll(ctx)
	assert.Len(t, rec.Events(), 2)
}

// TestPoll_Timeout 测试超时主机进入 TIMEOUT
func TestPoll_Timeout(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{
		"srvr": {Body: srvrFollower, Delay: 2 * time.Second},
	})
	c := newCluster(t, s)
	h := c.Hosts()[0]
	require.NoError(t, h.SetTimeout(50*time.Millisecond))

	rec := &recorder{}
	m := newMonitor(t, c, &Config{}, WithPublisher(rec))

	reports := m.Poll(testkit.NewContext(t, 5*time.Second))
	assert.Equal(t, zk.StatusTimeout.String(), reports[0].Status)
	assert.Equal(t, zk.HealthTimeout, h.Health())
	assert.Less(t, reports[0].Latency, time.Second)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, zk.HealthTimeout.String(), events[0].To)
}

// TestPoll_Order 测试并发受限时结果仍按主机插入顺序返回
func TestPoll_Order(t *testing.T) {
	var servers []*testkit.Server
	for _, d := range []time.Duration{60, 0, 30} {
		servers = append(servers, testkit.StartServer(t, map[string]testkit.Response{
			"srvr": {Body: srvrFollower, Delay: d * time.Millisecond},
		}))
	}
	c := newCluster(t, servers...)
	m := newMonitor(t, c, &Config{Concurrency: 2})

	reports := m.Poll(testkit.NewContext(t, 10*time.Second))
	require.Len(t, reports, 3)
	for i, h := range c.Hosts() {
		assert.Equal(t, h.ID(), reports[i].Host.ID)
		assert.True(t, reports[i].OK())
	}
	assert.Len(t, m.Reports(), 3)
}

// TestPoll_RateLimit 测试限流等待失败时不执行命令且健康状态不变
func TestPoll_RateLimit(t *testing.T) {
	a := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrFollower}})
	b := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrFollower}})
	c := newCluster(t, a, b)
	m := newMonitor(t, c, &Config{Concurrency: 1, Rate: 0.001, Burst: 1})

	reports := m.Poll(testkit.NewContext(t, 200*time.Millisecond))
	require.Len(t, reports, 2)
	assert.True(t, reports[0].OK())
	assert.Equal(t, zk.StatusError.String(), reports[1].Status)
	assert.Contains(t, reports[1].Error, "rate limit")

	assert.Equal(t, zk.HealthUnchecked, c.Hosts()[1].Health())
	assert.Empty(t, b.Received())

	_, ok := m.Report(c.Hosts()[1].ID())
	assert.False(t, ok)
}

// TestPoll_InjectedLimiter 测试注入的限流器只在 Rate > 0 时生效
func TestPoll_InjectedLimiter(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrFollower}})
	c := newCluster(t, s)

	limiter, err := ratelimit.NewStandalone(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	t.Run("默认配置不限速", func(t *testing.T) {
		m := newMonitor(t, c, &Config{}, WithLimiter(limiter))
		assert.Nil(t, m.limiter)

		reports := m.Poll(testkit.NewContext(t, 5*time.Second))
		require.Len(t, reports, 1)
		assert.True(t, reports[0].OK(), reports[0].Error)
		assert.Equal(t, zk.HealthHealthy, c.Hosts()[0].Health())
		assert.Equal(t, []string{"srvr"}, s.Received())
	})

	t.Run("设置 Rate 时使用注入的限流器", func(t *testing.T) {
		m := newMonitor(t, c, &Config{Rate: 100, Burst: 10}, WithLimiter(limiter))
		assert.Same(t, limiter, m.limiter)
		assert.False(t, m.ownedLimiter)

		reports := m.Poll(testkit.NewContext(t, 5*time.Second))
		assert.True(t, reports[0].OK(), reports[0].Error)

		// 关闭监控器不关闭外部限流器
		require.NoError(t, m.Close())
		assert.NoError(t, limiter.Wait(testkit.NewContext(t, time.Second), "after-close", ratelimit.Limit{Rate: 100, Burst: 1}))
	})
}

// TestPoll_Concurrent 测试并发调用 Poll 时每次状态变化只发布一次事件
func TestPoll_Concurrent(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{
		"srvr": {Body: srvrFollower, Delay: 50 * time.Millisecond},
	})
	c := newCluster(t, s)
	rec := &recorder{}
	m := newMonitor(t, c, &Config{}, WithPublisher(rec))
	ctx := testkit.NewContext(t, 10*time.Second)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Poll(ctx)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Received(), 4)
	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, zk.HealthUnchecked.String(), events[0].From)
	assert.Equal(t, zk.HealthHealthy.String(), events[0].To)
}

// TestReport 测试按名称查询最近结果及其过期
func TestReport(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrFollower}})
	c := newCluster(t, s)
	m := newMonitor(t, c, &Config{SnapshotTTL: 100 * time.Millisecond})
	id := c.Hosts()[0].ID()

	_, ok := m.Report(id)
	assert.False(t, ok)

	m.Poll(testkit.NewContext(t, 5*time.Second))

	r, ok := m.Report("  " + id + " ")
	require.True(t, ok)
	assert.Equal(t, id, r.Host.ID)
	assert.False(t, r.CheckedAt.IsZero())

	_, ok = m.Report("10.0.0.1:2181")
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := m.Report(id)
		return !ok && len(m.Reports()) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

// TestStartStop 测试周期轮询的启动与停止
func TestStartStop(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrFollower}})
	c := newCluster(t, s)
	m := newMonitor(t, c, &Config{Interval: 20 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	assert.ErrorIs(t, m.Start(ctx), ErrAlreadyStarted)

	assert.Eventually(t, func() bool {
		return len(s.Received()) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	m.Stop()
	m.Stop()
	n := len(s.Received())
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, n, len(s.Received()))

	// 停止后可以再次启动
	require.NoError(t, m.Start(ctx))
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
