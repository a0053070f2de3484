package connector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/xerrors"
)

type kafkaConnector struct {
	cfg         *KafkaConfig
	client      *kgo.Client
	logger      clog.Logger
	healthy     atomic.Bool
	mu          sync.RWMutex
	connections metrics.Counter
}

// NewKafka 创建 Kafka 连接器
func NewKafka(cfg *KafkaConfig, opts ...Option) (KafkaConnector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opt := applyOptions(opts)
	connections, err := opt.meter.Counter(MetricConnectionsTotal, "连接尝试次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create connections counter")
	}

	return &kafkaConnector{
		cfg:         cfg,
		logger:      opt.logger.With(clog.String("connector", "kafka"), clog.String("name", cfg.Name)),
		connections: connections,
	}, nil
}

// clientOptions 根据配置构造 franz-go 选项
func (c *kafkaConnector) clientOptions() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.cfg.Seed...),
		kgo.ClientID(c.cfg.ClientID),
		kgo.DialTimeout(c.cfg.ConnectTimeout),
		kgo.RequestTimeoutOverhead(c.cfg.RequestTimeout),
		kgo.WithLogger(&kgoLogger{logger: c.logger}),
		kgo.AllowAutoTopicCreation(),
	}
	if c.cfg.User != "" {
		opts = append(opts, kgo.SASL(plain.Auth{User: c.cfg.User, Pass: c.cfg.Password}.AsMechanism()))
	}
	return opts
}

func (c *kafkaConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	c.logger.Info("attempting to connect to kafka", clog.Any("seeds", c.cfg.Seed))

	client, err := kgo.NewClient(c.clientOptions()...)
	if err != nil {
		c.connections.Inc(ctx, metrics.L(LabelConnector, c.cfg.Name), metrics.L(LabelResult, resultFailure))
		return fmt.Errorf("%w: kafka[%s]: %v", ErrConfig, c.cfg.Name, err)
	}

	// franz-go 延迟建连，通过 Ping 验证 broker 可达
	if err := client.Ping(ctx); err != nil {
		client.Close()
		c.connections.Inc(ctx, metrics.L(LabelConnector, c.cfg.Name), metrics.L(LabelResult, resultFailure))
		c.logger.Error("failed to connect to kafka seeds", clog.Error(err))
		return fmt.Errorf("%w: kafka[%s]: %v", ErrConnection, c.cfg.Name, err)
	}

	c.client = client
	c.healthy.Store(true)
	c.connections.Inc(ctx, metrics.L(LabelConnector, c.cfg.Name), metrics.L(LabelResult, resultSuccess))
	c.logger.Info("successfully connected to kafka")
	return nil
}

func (c *kafkaConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.client != nil {
		c.client.Close()
		c.client = nil
		c.logger.Info("kafka connection closed")
	}
	return nil
}

func (c *kafkaConnector) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		c.healthy.Store(false)
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		c.healthy.Store(false)
		return fmt.Errorf("%w: %v", ErrHealthCheck, err)
	}
	c.healthy.Store(true)
	return nil
}

func (c *kafkaConnector) IsHealthy() bool {
	return c.healthy.Load()
}

func (c *kafkaConnector) Name() string {
	return c.cfg.Name
}

func (c *kafkaConnector) GetClient() *kgo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// kgoLogger 将 franz-go 日志转发到 clog
type kgoLogger struct {
	logger clog.Logger
}

func (l *kgoLogger) Level() kgo.LogLevel {
	return kgo.LogLevelInfo
}

func (l *kgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	var fields []clog.Field
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			fields = append(fields, clog.Any(key, keyvals[i+1]))
		}
	}

	switch level {
	case kgo.LogLevelError:
		l.logger.Error(msg, fields...)
	case kgo.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	case kgo.LogLevelInfo:
		l.logger.Info(msg, fields...)
	case kgo.LogLevelDebug:
		l.logger.Debug(msg, fields...)
	}
}
