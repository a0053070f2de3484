package zk

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/zkmonitor/breaker"
	"github.com/ceyewan/zkmonitor/testkit"
)

const (
	statLeader = statOK + "\nLatency min/avg/max: 0/0/12\nReceived: 2144\nSent: 2143\n" +
		"Connections: 4\nOutstanding: 0\nZxid: 0x40000002a\nMode: leader\nNode count: 12\n"

	enviOut = "Environment:\nzookeeper.version=3.4.6-1569965, built on 02/20/2014 09:09 GMT\nhost.name=zk1\n"
)

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// TestSrvr 测试 srvr 的成功、校验失败、网络失败与超时
func TestSrvr(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrOK}})
	ctx := context.Background()

	t.Run("成功", func(t *testing.T) {
		h := serverHost(t, s)
		out := h.Srvr(ctx)
		require.True(t, out.OK())
		assert.Equal(t, StatusSuccess, out.Status)
		assert.Equal(t, "FOLLOWER", out.Value["mode"])
		assert.Equal(t, HealthHealthy, h.Health())
		assert.Equal(t, ModeFollower, h.Info().Mode())
	})

	t.Run("校验失败", func(t *testing.T) {
		s.SetResponse("srvr", testkit.Response{Body: srvrInvalid})
		defer s.SetResponse("srvr", testkit.Response{Body: srvrOK})

		h := serverHost(t, s)
		out := h.Srvr(ctx)
		assert.False(t, out.OK())
		assert.Equal(t, StatusError, out.Status)
		assert.ErrorIs(t, out.Err, ErrInvalidInfo)
		assert.Nil(t, out.Value)
		assert.Equal(t, HealthError, h.Health())
	})

	t.Run("连接失败", func(t *testing.T) {
		h, err := NewHost(&HostConfig{Addr: "127.0.0.1", Port: closedPort(t)})
		require.NoError(t, err)
		out := h.Srvr(ctx)
		assert.False(t, out.OK())
		assert.Equal(t, StatusError, out.Status)
		assert.Equal(t, HealthError, h.Health())
	})

	t.Run("超时", func(t *testing.T) {
		s.SetResponse("srvr", testkit.Response{Body: srvrOK, Delay: 3 * time.Second})
		defer s.SetResponse("srvr", testkit.Response{Body: srvrOK})

		h := serverHost(t, s)
		require.NoError(t, h.SetTimeoutSeconds(0.1))
		out := h.Srvr(ctx)
		assert.Equal(t, StatusTimeout, out.Status)
		assert.ErrorIs(t, out.Err, ErrConnectionTimeout)
		assert.Equal(t, HealthTimeout, h.Health())
	})

	t.Run("不更新 info", func(t *testing.T) {
		h := serverHost(t, s, WithoutInfoUpdate())
		out := h.Srvr(ctx)
		require.True(t, out.OK())
		assert.Equal(t, HealthHealthy, h.Health())
		assert.Equal(t, ModeUnknown, h.Info().Mode())
	})
}

// TestStat 测试 stat 先解析客户端再将剩余行交给 info 解析
func TestStat(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"stat": {Body: statLeader}})
	h := serverHost(t, s)

	out := h.Stat(context.Background())
	require.True(t, out.OK(), "err: %v", out.Err)

	assert.Equal(t, "Zookeeper version: 3.4.6-1569965, built on 02/20/2014 09:09 GMT", out.Value.Head)
	require.Len(t, out.Value.Clients, 4)
	assert.Equal(t, "1.1.5.38", out.Value.Clients[0].Host)
	assert.Equal(t, "LEADER", out.Value.Info["mode"])
	assert.Equal(t, "0x40000002a", out.Value.Info["zxid"])
	assert.Equal(t, "4", out.Value.Info["connections"])
	assert.NotContains(t, out.Value.Info, "zookeeper", "head line must not reach the info parser")

	assert.Equal(t, HealthHealthy, h.Health())
	assert.Equal(t, "4", h.Info()["connections"])
}

// TestStat_WithoutMode 测试 stat 缺少 mode 时健康状态为 ERROR
func TestStat_WithoutMode(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"stat": {Body: statOK}})
	h := serverHost(t, s)

	out := h.Stat(context.Background())
	assert.Equal(t, StatusError, out.Status)
	assert.ErrorIs(t, out.Err, ErrInvalidInfo)
	assert.Equal(t, HealthError, h.Health())
}

// TestEnvi 测试 envi 解析且成功时不改变健康状态
func TestEnvi(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"envi": {Body: enviOut}})
	h := serverHost(t, s)

	out := h.Envi(context.Background())
	require.True(t, out.OK())
	assert.Equal(t, "zk1", out.Value["host.name"])
	assert.Equal(t, HealthUnchecked, h.Health())
}

// TestPassThrough 测试原样返回的命令
func TestPassThrough(t *testing.T) {
	responses := map[string]testkit.Response{}
	for _, c := range []Command{CommandDump, CommandKill, CommandRuok, CommandSrst, CommandReqs, CommandCons, CommandWchs, CommandMntr} {
		responses[c.String()] = testkit.Response{Body: "simple " + c.String()}
	}
	s := testkit.StartServer(t, responses)
	h := serverHost(t, s)
	ctx := context.Background()

	methods := map[string]func(context.Context) Outcome[[]byte]{
		"dump": h.Dump, "kill": h.Kill, "ruok": h.Ruok, "srst": h.Srst,
		"reqs": h.Reqs, "cons": h.Cons, "wchs": h.Wchs, "mntr": h.Mntr,
	}
	for name, method := range methods {
		t.Run(name, func(t *testing.T) {
			out := method(ctx)
			require.True(t, out.OK())
			assert.Equal(t, "simple "+name, string(out.Value))
		})
	}
	assert.Equal(t, HealthUnchecked, h.Health())
}

// TestRun 测试分发表与未知命令
func TestRun(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{
		"srvr": {Body: srvrOK},
		"stat": {Body: statLeader},
		"envi": {Body: enviOut},
		"ruok": {Body: "imok"},
	})
	h := serverHost(t, s)
	ctx := context.Background()

	out := h.Run(ctx, CommandSrvr)
	require.True(t, out.OK())
	assert.IsType(t, Info{}, out.Value)

	out = h.Run(ctx, CommandStat)
	require.True(t, out.OK())
	assert.IsType(t, StatResult{}, out.Value)

	out = h.Run(ctx, CommandEnvi)
	require.True(t, out.OK())
	assert.IsType(t, map[string]string{}, out.Value)

	out = h.Run(ctx, CommandRuok)
	require.True(t, out.OK())
	assert.Equal(t, []byte("imok"), out.Value)

	out = h.Run(ctx, Command(99))
	assert.Equal(t, StatusError, out.Status)
	assert.ErrorIs(t, out.Err, ErrUnknownCommand)
	assert.Nil(t, out.Value)
	assert.Equal(t, HealthError, h.Health())
}

// TestParseCommand 测试命令名称解析
func TestParseCommand(t *testing.T) {
	for _, c := range Commands() {
		got, err := ParseCommand("  " + c.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCommand("SRVR")
	require.NoError(t, err)
	assert.Equal(t, CommandSrvr, got)

	_, err = ParseCommand("stats")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, "command(99)", Command(99).String())
	assert.Len(t, Commands(), 11)
}

// TestBreaker_Down 测试熔断打开后命令结果为 DOWN
func TestBreaker_Down(t *testing.T) {
	brk, err := breaker.New(&breaker.Config{MinimumRequests: 1, FailureRatio: 0.5, Timeout: time.Minute})
	require.NoError(t, err)

	h, err := NewHost(&HostConfig{Addr: "127.0.0.1", Port: closedPort(t)}, WithBreaker(brk))
	require.NoError(t, err)
	ctx := context.Background()

	out := h.Srvr(ctx)
	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, HealthError, h.Health())

	state, err := brk.State(h.ID())
	require.NoError(t, err)
	assert.Equal(t, breaker.StateOpen, state)

	out = h.Srvr(ctx)
	assert.Equal(t, StatusDown, out.Status)
	assert.ErrorIs(t, out.Err, ErrHostDown)
	assert.ErrorIs(t, out.Err, breaker.ErrOpenState)
	assert.Equal(t, HealthDown, h.Health())
}

// TestBreaker_ParseFailureDoesNotTrip 测试解析失败不计入熔断统计
func TestBreaker_ParseFailureDoesNotTrip(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrInvalid}})
	brk, err := breaker.New(&breaker.Config{MinimumRequests: 1, FailureRatio: 0.5, Timeout: time.Minute})
	require.NoError(t, err)
	h := serverHost(t, s, WithBreaker(brk))

	for range 3 {
		out := h.Srvr(context.Background())
		assert.Equal(t, StatusError, out.Status)
	}
	state, err := brk.State(h.ID())
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, state)
}
