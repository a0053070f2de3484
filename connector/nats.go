package connector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/xerrors"
)

type natsConnector struct {
	cfg         *NATSConfig
	conn        *nats.Conn
	logger      clog.Logger
	healthy     atomic.Bool
	mu          sync.RWMutex
	connections metrics.Counter
}

// NewNATS 创建 NATS 连接器
func NewNATS(cfg *NATSConfig, opts ...Option) (NATSConnector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opt := applyOptions(opts)
	connections, err := opt.meter.Counter(MetricConnectionsTotal, "连接尝试次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create connections counter")
	}

	return &natsConnector{
		cfg:         cfg,
		logger:      opt.logger.With(clog.String("connector", "nats"), clog.String("name", cfg.Name)),
		connections: connections,
	}, nil
}

// Connect 建立连接
func (c *natsConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	natsOpts := []nats.Option{
		nats.Name(c.cfg.Name),
		nats.Timeout(c.cfg.Timeout),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.ReconnectWait(c.cfg.ReconnectWait),
		nats.PingInterval(c.cfg.PingInterval),
		nats.MaxPingsOutstanding(c.cfg.MaxPingsOut),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.healthy.Store(false)
			c.logger.Warn("nats disconnected", clog.Error(err))
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			c.healthy.Store(true)
			c.logger.Info("nats reconnected", clog.String("url", conn.ConnectedUrl()))
		}),
	}
	if c.cfg.Username != "" {
		natsOpts = append(natsOpts, nats.UserInfo(c.cfg.Username, c.cfg.Password))
	}
	if c.cfg.Token != "" {
		natsOpts = append(natsOpts, nats.Token(c.cfg.Token))
	}

	c.logger.Info("attempting to connect to nats", clog.String("url", c.cfg.URL))
	conn, err := nats.Connect(c.cfg.URL, natsOpts...)
	if err != nil {
		c.connections.Inc(ctx, metrics.L(LabelConnector, c.cfg.Name), metrics.L(LabelResult, resultFailure))
		c.logger.Error("failed to connect to nats", clog.Error(err), clog.String("url", c.cfg.URL))
		return fmt.Errorf("%w: nats[%s]: %v", ErrConnection, c.cfg.Name, err)
	}

	c.conn = conn
	c.healthy.Store(true)
	c.connections.Inc(ctx, metrics.L(LabelConnector, c.cfg.Name), metrics.L(LabelResult, resultSuccess))
	c.logger.Info("successfully connected to nats", clog.String("url", c.cfg.URL))
	return nil
}

// Close 关闭连接
func (c *natsConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.logger.Info("nats connection closed")
	}
	return nil
}

// HealthCheck 检查连接状态
func (c *natsConnector) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		c.healthy.Store(false)
		return ErrNotConnected
	}

	if status := conn.Status(); status != nats.CONNECTED {
		c.healthy.Store(false)
		return fmt.Errorf("%w: nats status %s", ErrHealthCheck, status.String())
	}
	if err := conn.FlushWithContext(ctx); err != nil {
		c.healthy.Store(false)
		return fmt.Errorf("%w: %v", ErrHealthCheck, err)
	}

	c.healthy.Store(true)
	return nil
}

func (c *natsConnector) IsHealthy() bool {
	return c.healthy.Load()
}

func (c *natsConnector) Name() string {
	return c.cfg.Name
}

func (c *natsConnector) GetClient() *nats.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}
