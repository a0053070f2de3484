package notify

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/ceyewan/zkmonitor/xerrors"
)

// NATSClient 发布 NATS 消息的最小接口，*nats.Conn 满足该接口
type NATSClient interface {
	PublishMsg(m *nats.Msg) error
}

// NewNATS 创建发布到 NATS Core subject 的发布者
func NewNATS(conn NATSClient, cfg *Config, opts ...Option) (Publisher, error) {
	if conn == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "nats client is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return newPublisher(DriverNATS, cfg, applyOptions(opts...),
		func(_ context.Context, _ Event, data []byte, headers map[string]string) error {
			msg := nats.NewMsg(cfg.Subject)
			msg.Data = data
			for k, v := range headers {
				msg.Header.Set(k, v)
			}
			return conn.PublishMsg(msg)
		})
}
