package zk

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/zkmonitor/testkit"
)

type fakeResolver struct {
	addrs []string
	err   error
	calls atomic.Int32
}

func (r *fakeResolver) LookupHost(_ context.Context, _ string) ([]string, error) {
	r.calls.Add(1)
	return r.addrs, r.err
}

// pipeDialer 返回 net.Pipe 的一端，另一端交给 peer 处理
type pipeDialer struct {
	peer func(conn net.Conn)
	addr atomic.Value
}

func (d *pipeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	d.addr.Store(address)
	client, server := net.Pipe()
	go d.peer(server)
	return client, nil
}

func serverHost(t *testing.T, s *testkit.Server, opts ...Option) *Host {
	t.Helper()
	h, err := NewHost(&HostConfig{Addr: s.Addr(), Port: s.Port()}, opts...)
	require.NoError(t, err)
	return h
}

// TestExecute 测试命令被裁剪后发送并读取到连接关闭
func TestExecute(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{
		"sample_command":    {Body: "DATA"},
		"B__sample_command": {Body: "MORE\nDATA"},
	})
	h := serverHost(t, s)
	ctx := testkit.NewContext(t, 5*time.Second)

	data, err := h.Execute(ctx, "sample_command")
	require.NoError(t, err)
	assert.Equal(t, "DATA", string(data))

	data, err = h.Execute(ctx, "    B__sample_command                     \n")
	require.NoError(t, err)
	assert.Equal(t, "MORE\nDATA", string(data))

	assert.Equal(t, []string{"sample_command", "B__sample_command"}, s.Received())
	assert.Equal(t, HealthUnchecked, h.Health(), "Execute must not touch health")
}

// TestExecute_Resolve 测试只使用解析结果中的第一个地址
func TestExecute_Resolve(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"ruok": {Body: "imok"}})
	r := &fakeResolver{addrs: []string{s.Addr(), "10.255.255.1"}}

	h, err := NewHost(&HostConfig{Addr: "Dummy.Host", Port: s.Port()}, WithResolver(r))
	require.NoError(t, err)

	data, err := h.Execute(context.Background(), "ruok")
	require.NoError(t, err)
	assert.Equal(t, "imok", string(data))
	assert.Equal(t, int32(1), r.calls.Load())
}

// TestExecute_ResolveError 测试解析失败返回 ErrResolve
func TestExecute_ResolveError(t *testing.T) {
	for _, r := range []*fakeResolver{
		{err: errors.New("no such host")},
		{addrs: []string{}},
	} {
		h, err := NewHost(&HostConfig{Addr: "dummy.host"}, WithResolver(r))
		require.NoError(t, err)

		_, err = h.Execute(context.Background(), "srvr")
		assert.ErrorIs(t, err, ErrResolve)
	}
}

// TestExecute_IPLiteralSkipsLookup 测试 IP 地址不经过解析器
func TestExecute_IPLiteralSkipsLookup(t *testing.T) {
	r := &fakeResolver{err: errors.New("must not be called")}
	d := &pipeDialer{peer: func(conn net.Conn) {
		defer conn.Close()
		buf := make([]byte, 16)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("imok"))
	}}

	h, err := NewHost(&HostConfig{Addr: "10.1.2.3", Port: 2281}, WithResolver(r), WithDialer(d))
	require.NoError(t, err)

	data, err := h.Execute(context.Background(), "ruok")
	require.NoError(t, err)
	assert.Equal(t, "imok", string(data))
	assert.Zero(t, r.calls.Load())
	assert.Equal(t, "10.1.2.3:2281", d.addr.Load())
}

// TestExecute_ConnectionRefused 测试连接失败返回普通错误
func TestExecute_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	h, err := NewHost(&HostConfig{Addr: "127.0.0.1", Port: port})
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), "srvr")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConnectionTimeout)
}

// TestExecute_Timeout 测试延迟响应在超时后只产生一次 ErrConnectionTimeout
func TestExecute_Timeout(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrOK, Delay: 3 * time.Second}})
	h := serverHost(t, s)
	require.NoError(t, h.SetTimeoutSeconds(0.1))

	start := time.Now()
	data, err := h.Execute(context.Background(), "srvr")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrConnectionTimeout)
	assert.Nil(t, data)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

// TestExecute_TimeoutClosesConnection 测试超时强制关闭连接并中断阻塞的读取
func TestExecute_TimeoutClosesConnection(t *testing.T) {
	closed := make(chan struct{})
	d := &pipeDialer{peer: func(conn net.Conn) {
		defer close(closed)
		buf := make([]byte, 16)
		n, _ := conn.Read(buf)
		assert.Equal(t, "cmd\n", string(buf[:n]))
		// 不回复，等待对端关闭
		_, err := io.Copy(io.Discard, conn)
		assert.NoError(t, err)
	}}

	h, err := NewHost(&HostConfig{Addr: "127.0.0.1"}, WithDialer(d))
	require.NoError(t, err)
	require.NoError(t, h.SetTimeout(50*time.Millisecond))

	_, err = h.Execute(context.Background(), "cmd")
	require.ErrorIs(t, err, ErrConnectionTimeout)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("connection was not closed on timeout")
	}
}

// TestExecute_ZeroTimeout 测试超时为 0 时立即超时且不建立连接
func TestExecute_ZeroTimeout(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrOK}})
	h := serverHost(t, s)
	require.NoError(t, h.SetTimeoutSeconds(0))

	_, err := h.Execute(context.Background(), "srvr")
	require.ErrorIs(t, err, ErrConnectionTimeout)
	assert.Empty(t, s.Received())
}

// TestExecute_Canceled 测试调用方取消不被视为超时
func TestExecute_Canceled(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrOK, Delay: 3 * time.Second}})
	h := serverHost(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := h.Execute(ctx, "srvr")
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrConnectionTimeout)
}

func TestExecute_DialAddress(t *testing.T) {
	d := &pipeDialer{peer: func(conn net.Conn) { _ = conn.Close() }}
	h, err := NewHost(&HostConfig{Addr: "::1", Port: 2181}, WithDialer(d))
	require.NoError(t, err)

	_, _ = h.Execute(context.Background(), "ruok")
	assert.Equal(t, net.JoinHostPort("::1", strconv.Itoa(2181)), d.addr.Load())
	assert.Equal(t, "::1:2181", h.ID())
}
