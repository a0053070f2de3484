package notify

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ceyewan/zkmonitor/xerrors"
)

// KafkaClient 同步生产 Kafka 记录的最小接口，*kgo.Client 满足该接口
type KafkaClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// NewKafka 创建发布到 Kafka topic 的发布者，记录的 Key 为主机 ID，保证同一主机的事件有序
func NewKafka(client KafkaClient, cfg *Config, opts ...Option) (Publisher, error) {
	if client == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "kafka client is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return newPublisher(DriverKafka, cfg, applyOptions(opts...),
		func(ctx context.Context, e Event, data []byte, headers map[string]string) error {
			record := &kgo.Record{
				Topic: cfg.Subject,
				Key:   []byte(e.Host),
				Value: data,
			}
			for k, v := range headers {
				record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
			}
			return client.ProduceSync(ctx, record).FirstErr()
		})
}
