// Package config 为 zkmonitor 提供配置加载能力，基于 Viper 实现。
//
// 配置优先级：环境变量 > .env > 环境特定配置 (zkmon.<env>.yaml) > 基础配置。
// 环境变量使用前缀加下划线路径，例如 ZKMON_MONITOR_INTERVAL 覆盖 monitor.interval。
//
// 基本使用：
//
//	loader, _ := config.New(&config.Config{File: "zkmon.yaml"})
//	if err := loader.Load(ctx); err != nil {
//		return err
//	}
//	var cfg AppConfig
//	_ = loader.Unmarshal(&cfg)
//
//	// 监听配置变化
//	ch, _ := loader.Watch(ctx, "clusters")
//	for event := range ch {
//		...
//	}
package config

import (
	"context"
	"time"
)

// Loader 定义配置加载器的核心行为
type Loader interface {
	// Load 加载配置并启动文件监听
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 监听配置变化，ctx 取消后通道关闭
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// Validate 验证当前配置的有效性
	Validate() error

	// ConfigFileUsed 返回实际读取的配置文件，未读取时为空
	ConfigFileUsed() string
}

// Event 配置变更事件
type Event struct {
	Key       string // 配置 key
	Value     any    // 新值
	OldValue  any    // 旧值
	Source    string // "file"
	Timestamp time.Time
}
