package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ceyewan/zkmonitor/breaker"
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/config"
	"github.com/ceyewan/zkmonitor/connector"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/monitor"
	"github.com/ceyewan/zkmonitor/notify"
	"github.com/ceyewan/zkmonitor/trace"
	"github.com/ceyewan/zkmonitor/zk"
)

const serviceName = "zkmon"

// AppConfig zkmon 的完整配置
//
//	log:     {level: info, format: console, output: stdout}
//	metrics: {enabled: true, port: 9090, path: /metrics, runtime: true}
//	trace:   {enabled: false, endpoint: localhost:4317, insecure: true}
//	monitor: {interval: 10s, command: srvr, concurrency: 8}
//	breaker: {enabled: true, timeout: 30s, minimum_requests: 3}
//	notify:  {driver: nats, subject: zk.health, nats: {url: nats://127.0.0.1:4222}}
//	cluster:
//	  name: prod
//	  timeout: 2
//	  hosts:
//	    - {addr: 10.1.15.1, port: 2181, dc: eu-west}
type AppConfig struct {
	Log     clog.Config      `mapstructure:"log"`
	Metrics metrics.Config   `mapstructure:"metrics"`
	Trace   trace.Config     `mapstructure:"trace"`
	Monitor monitor.Config   `mapstructure:"monitor"`
	Breaker BreakerConfig    `mapstructure:"breaker"`
	Notify  NotifyConfig     `mapstructure:"notify"`
	Cluster zk.ClusterConfig `mapstructure:"cluster"`
}

// BreakerConfig 主机熔断配置，连续失败的主机被标记为 DOWN
type BreakerConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	breaker.Config `mapstructure:",squash"`
}

// NotifyConfig 健康状态事件的发布配置
type NotifyConfig struct {
	notify.Config `mapstructure:",squash"`

	NATS  connector.NATSConfig  `mapstructure:"nats"`
	Kafka connector.KafkaConfig `mapstructure:"kafka"`
}

func (c *AppConfig) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = serviceName
	}
	if c.Trace.ServiceName == "" {
		c.Trace.ServiceName = serviceName
	}
	if c.Cluster.Name == "" {
		c.Cluster.Name = zk.DefaultClusterName
	}
	if len(c.Cluster.Hosts) == 0 {
		c.Cluster.Hosts = []zk.HostConfig{{Addr: "localhost", Port: zk.DefaultPort}}
	}
}

// loadConfig 加载配置文件与环境变量，path 为空时按默认名称搜索
func loadConfig(ctx context.Context, path string, logger clog.Logger) (*AppConfig, config.Loader, error) {
	loaderCfg := &config.Config{Name: serviceName, EnvPrefix: serviceName}
	if path != "" {
		loaderCfg.File = path
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			loaderCfg.FileType = strings.ToLower(ext)
		}
	}

	loader, err := config.New(loaderCfg, config.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := loader.Load(ctx); err != nil {
		return nil, nil, err
	}

	cfg := &AppConfig{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, nil, err
	}
	cfg.setDefaults()
	return cfg, loader, nil
}
