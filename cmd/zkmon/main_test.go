package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/notify"
	"github.com/ceyewan/zkmonitor/testkit"
	"github.com/ceyewan/zkmonitor/xerrors"
	"github.com/ceyewan/zkmonitor/zk"
)

const srvrLeader = "Zookeeper version: 3.4.6-1569965, built on 02/20/2014 09:09 GMT\n" +
	"Latency min/avg/max: 0/0/12\nReceived: 2144\nSent: 2143\nConnections: 4\n" +
	"Outstanding: 0\nZxid: 0x40000002a\nMode: leader\nNode count: 12\n"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zkmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func serverConfig(s *testkit.Server) string {
	return fmt.Sprintf(`
log:
  level: error
  output: stderr
cluster:
  name: it
  timeout: 1
  hosts:
    - {addr: %s, port: %d, dc: local}
`, s.Addr(), s.Port())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(testkit.NewContext(t, 10*time.Second))
	return out.String(), err
}

// TestLoadConfig 测试配置文件解析与默认值
func TestLoadConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("完整配置", func(t *testing.T) {
		path := writeConfig(t, `
monitor:
  interval: 5s
  command: stat
breaker:
  enabled: true
  minimum_requests: 3
notify:
  driver: nats
  subject: zk.events
  nats:
    url: nats://127.0.0.1:4222
cluster:
  name: prod
  timeout: 1.5
  hosts:
    - {addr: 10.1.15.1, dc: eu-west}
    - {addr: 10.1.15.2, port: 2182}
`)
		cfg, loader, err := loadConfig(ctx, path, clog.Discard())
		require.NoError(t, err)
		assert.Equal(t, path, loader.ConfigFileUsed())

		assert.Equal(t, 5*time.Second, cfg.Monitor.Interval)
		assert.Equal(t, "stat", cfg.Monitor.Command)
		assert.True(t, cfg.Breaker.Enabled)
		assert.Equal(t, uint32(3), cfg.Breaker.MinimumRequests)
		assert.Equal(t, notify.DriverNATS, cfg.Notify.Driver)
		assert.Equal(t, "zk.events", cfg.Notify.Subject)
		assert.Equal(t, "nats://127.0.0.1:4222", cfg.Notify.NATS.URL)

		assert.Equal(t, "prod", cfg.Cluster.Name)
		require.NotNil(t, cfg.Cluster.Timeout)
		assert.Equal(t, 1.5, *cfg.Cluster.Timeout)
		require.Len(t, cfg.Cluster.Hosts, 2)
		assert.Equal(t, "eu-west", cfg.Cluster.Hosts[0].DC)
		assert.Equal(t, 2182, cfg.Cluster.Hosts[1].Port)

		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, serviceName, cfg.Metrics.ServiceName)
	})

	t.Run("无配置文件", func(t *testing.T) {
		cfg, loader, err := loadConfig(ctx, "", clog.Discard())
		require.NoError(t, err)
		assert.Empty(t, loader.ConfigFileUsed())
		assert.Equal(t, zk.DefaultClusterName, cfg.Cluster.Name)
		require.Len(t, cfg.Cluster.Hosts, 1)
		assert.Equal(t, "localhost", cfg.Cluster.Hosts[0].Addr)
		assert.Equal(t, zk.DefaultPort, cfg.Cluster.Hosts[0].Port)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, _, err := loadConfig(ctx, filepath.Join(t.TempDir(), "missing.yaml"), clog.Discard())
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
	})
}

// TestParseHostArg 测试命令行主机参数解析
func TestParseHostArg(t *testing.T) {
	tests := []struct {
		in      string
		addr    string
		port    int
		wantErr bool
	}{
		{in: "10.0.0.1", addr: "10.0.0.1", port: zk.DefaultPort},
		{in: " zk1:2182 ", addr: "zk1", port: 2182},
		{in: "::1", addr: "::1", port: zk.DefaultPort},
		{in: "[::1]:2183", addr: "::1", port: 2183},
		{in: "zk1:http", wantErr: true},
		{in: "zk1:70000", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hc, err := parseHostArg(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, hc.Addr)
			assert.Equal(t, tt.port, hc.Port)
		})
	}
}

// TestAppendHosts 测试热追加主机时跳过重复与非法配置
func TestAppendHosts(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrLeader}})
	cfg, _, err := loadConfig(context.Background(), writeConfig(t, serverConfig(s)), clog.Discard())
	require.NoError(t, err)

	app, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close(context.Background()) }()
	require.Equal(t, 1, app.cluster.Len())

	added := app.appendHosts([]zk.HostConfig{
		{Addr: s.Addr(), Port: s.Port()},
		{Addr: "10.0.0.9", Port: 2181, DC: "remote"},
		{Addr: "10.0.0.9", Port: 2181},
		{Addr: ""},
	})
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, app.cluster.Len())
	assert.Equal(t, []string{"local", "remote"}, app.cluster.Datacenters())

	h, ok := app.cluster.Host("10.0.0.9:2181")
	require.True(t, ok)
	assert.Equal(t, time.Second, h.Timeout())
	assert.Equal(t, "it", h.ClusterName())
}

// TestCheckCmd 测试 check 输出集群状态并按健康状况返回
func TestCheckCmd(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"srvr": {Body: srvrLeader}})
	path := writeConfig(t, serverConfig(s))

	out, err := execute(t, "check", "-c", path)
	require.NoError(t, err)

	var status zk.ClusterStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "it", status.Name)
	assert.Equal(t, fmt.Sprintf("%s:%d", s.Addr(), s.Port()), status.Leader)
	assert.Equal(t, map[string]int{"HEALTHY": 1}, status.Counts)
	require.Len(t, status.Hosts, 1)
	assert.Equal(t, zk.HealthHealthy, status.Hosts[0].Health)

	s.SetResponse("srvr", testkit.Response{Body: "Mode: standalone\n"})
	out, err = execute(t, "check", "-c", path)
	assert.ErrorIs(t, err, errUnhealthy)
	var unhealthy zk.ClusterStatus
	require.NoError(t, json.Unmarshal([]byte(out), &unhealthy))
	assert.Equal(t, map[string]int{"ERROR": 1}, unhealthy.Counts)
}

// TestExecCmd 测试对单台主机执行命令并输出原始结果
func TestExecCmd(t *testing.T) {
	s := testkit.StartServer(t, map[string]testkit.Response{"mntr": {Body: "zk_version\t3.4.6\n"}})
	target := fmt.Sprintf("%s:%d", s.Addr(), s.Port())

	out, err := execute(t, "exec", "MNTR", target)
	require.NoError(t, err)
	assert.Equal(t, "zk_version\t3.4.6\n", out)
	assert.Equal(t, []string{"mntr"}, s.Received())

	_, err = execute(t, "exec", "nope", target)
	assert.ErrorIs(t, err, zk.ErrUnknownCommand)

	_, err = execute(t, "exec", "ruok")
	assert.Error(t, err)
}
