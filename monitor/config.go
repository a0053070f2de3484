package monitor

import (
	"time"

	"github.com/ceyewan/zkmonitor/xerrors"
	"github.com/ceyewan/zkmonitor/zk"
)

// Config 轮询配置
type Config struct {
	// Interval 两轮检查之间的间隔（默认：10s）
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// Command 每轮执行的四字命令，srvr 或 stat 等（默认：srvr）
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	// Concurrency 同时检查的最大主机数（默认：8）
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// Rate 每秒允许发起的检查数，0 表示不限速
	Rate float64 `json:"rate" yaml:"rate" mapstructure:"rate"`

	// Burst 限速时的令牌桶容量（默认：1）
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// SnapshotTTL 检查结果在缓存中的保留时间（默认：3 倍 Interval）
	SnapshotTTL time.Duration `json:"snapshot_ttl" yaml:"snapshot_ttl" mapstructure:"snapshot_ttl"`
}

func (c *Config) setDefaults() {
	if c.Interval == 0 {
		c.Interval = 10 * time.Second
	}
	if c.Command == "" {
		c.Command = zk.CommandSrvr.String()
	}
	if c.Concurrency == 0 {
		c.Concurrency = 8
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	if c.SnapshotTTL == 0 {
		c.SnapshotTTL = 3 * c.Interval
	}
}

func (c *Config) validate() error {
	if c.Interval < 0 || c.SnapshotTTL < 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "monitor durations must not be negative")
	}
	if c.Concurrency < 0 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "monitor concurrency %d", c.Concurrency)
	}
	if c.Rate < 0 || c.Burst < 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "monitor rate and burst must not be negative")
	}
	if _, err := zk.ParseCommand(c.Command); err != nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, err.Error())
	}
	return nil
}
