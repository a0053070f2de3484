package metrics

import "fmt"

// Config 指标系统的配置结构体
//
// 典型配置示例（YAML）：
//
//	metrics:
//	  enabled: true
//	  service_name: "zkmon"
//	  port: 9090
//	  path: "/metrics"
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter
	Enabled bool `mapstructure:"enabled"`

	// ServiceName 作为 OpenTelemetry Resource 的 service.name 属性
	ServiceName string `mapstructure:"service_name"`

	// Version 作为 OpenTelemetry Resource 的 service.version 属性
	Version string `mapstructure:"version"`

	// Port 大于 0 时启动 HTTP 服务器暴露 Prometheus 指标
	Port int `mapstructure:"port"`

	// Path Prometheus 采集路径，必须以 "/" 开头
	Path string `mapstructure:"path"`

	// Runtime 是否采集 Go 运行时指标
	Runtime bool `mapstructure:"runtime"`
}

// NewDevDefaultConfig 返回开发环境默认配置：启用指标，不启动 HTTP 服务器
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
		Path:        "/metrics",
	}
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "zkmon"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// validate 验证配置
func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Port)
	}
	if c.Path[0] != '/' {
		return fmt.Errorf("metrics path must start with '/': %s", c.Path)
	}
	return nil
}
