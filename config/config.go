package config

import (
	"context"
	"fmt"
	"strings"
)

// Config 配置加载器自身的配置
type Config struct {
	Name      string   `mapstructure:"name"`       // 配置文件名称（不含扩展名），默认 "zkmon"
	Paths     []string `mapstructure:"paths"`      // 配置文件搜索路径，默认 [".", "./config"]
	File      string   `mapstructure:"file"`       // 显式指定的配置文件路径，设置后忽略 Name/Paths
	FileType  string   `mapstructure:"file_type"`  // 配置文件类型 (yaml, json, toml)
	EnvPrefix string   `mapstructure:"env_prefix"` // 环境变量前缀，默认 "ZKMON"
}

// validate 设置默认值并验证配置
func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "zkmon"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "ZKMON"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)

	switch c.FileType {
	case "yaml", "yml", "json", "toml":
	default:
		return fmt.Errorf("%w: unsupported file type %q", ErrValidationFailed, c.FileType)
	}
	return nil
}

// New 创建配置加载器。
//
// 如果 cfg 为 nil，使用默认配置。
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return newLoader(cfg, applyOptions(opts...)), nil
}

// MustLoad 创建并立即加载配置，失败时 panic。仅用于初始化阶段。
func MustLoad(cfg *Config, opts ...Option) Loader {
	l, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	if err := l.Load(context.Background()); err != nil {
		panic(err)
	}
	return l
}
