package notify

import (
	"strings"

	"github.com/ceyewan/zkmonitor/cache/serializer"
	"github.com/ceyewan/zkmonitor/xerrors"
)

// 支持的驱动
const (
	DriverNone  = "none"
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// DefaultSubject 默认发布的 subject/topic
const DefaultSubject = "zk.health"

// Config 事件发布配置
type Config struct {
	// Driver 发布驱动：none | nats | kafka（默认：none）
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Subject NATS subject 或 Kafka topic（默认：zk.health）
	Subject string `json:"subject" yaml:"subject" mapstructure:"subject"`

	// Codec 编码格式：msgpack | json（默认：msgpack）
	Codec string `json:"codec" yaml:"codec" mapstructure:"codec"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverNone
	}
	c.Driver = strings.ToLower(c.Driver)
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	if c.Codec == "" {
		c.Codec = serializer.MsgPack
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverNone, DriverNATS, DriverKafka:
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown notify driver %q", c.Driver)
	}
	return nil
}

// Validate 设置默认值并校验配置
func (c *Config) Validate() error {
	c.setDefaults()
	return c.validate()
}
