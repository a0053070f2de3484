package main

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/ceyewan/zkmonitor/breaker"
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/config"
	"github.com/ceyewan/zkmonitor/connector"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/monitor"
	"github.com/ceyewan/zkmonitor/notify"
	"github.com/ceyewan/zkmonitor/trace"
	"github.com/ceyewan/zkmonitor/xerrors"
	"github.com/ceyewan/zkmonitor/zk"
)

// hostsKey 配置文件中主机列表的位置，运行期间只追加不删除
const hostsKey = "cluster.hosts"

// App 按配置装配好的监控进程
type App struct {
	cfg       *AppConfig
	logger    clog.Logger
	meter     metrics.Meter
	cluster   *zk.Cluster
	publisher notify.Publisher
	monitor   *monitor.Monitor

	closers []func(context.Context) error
}

// newApp 依次初始化日志、指标、链路追踪、熔断、集群、事件发布与监控器
//
// 任一步失败时已创建的资源会被释放。
func newApp(ctx context.Context, cfg *AppConfig) (app *App, err error) {
	app = &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	if app.logger, err = clog.New(&cfg.Log, clog.WithNamespace(serviceName)); err != nil {
		return app, xerrors.Wrap(err, "create logger")
	}
	app.onClose(func(context.Context) error {
		app.logger.Flush()
		return nil
	})

	if app.meter, err = metrics.New(&cfg.Metrics, metrics.WithLogger(app.logger)); err != nil {
		return app, xerrors.Wrap(err, "create meter")
	}
	app.onClose(app.meter.Shutdown)

	shutdownTrace, err := trace.Init(&cfg.Trace)
	if err != nil {
		return app, xerrors.Wrap(err, "init tracing")
	}
	app.onClose(shutdownTrace)

	hostOpts := []zk.Option{
		zk.WithLogger(app.logger),
		zk.WithMeter(app.meter),
		zk.WithTracerProvider(otel.GetTracerProvider()),
	}
	if cfg.Breaker.Enabled {
		brk, err := breaker.New(&cfg.Breaker.Config, breaker.WithLogger(app.logger), breaker.WithMeter(app.meter))
		if err != nil {
			return app, xerrors.Wrap(err, "create breaker")
		}
		hostOpts = append(hostOpts, zk.WithBreaker(brk))
	}

	if app.cluster, err = zk.NewClusterFromConfig(&cfg.Cluster,
		zk.WithClusterLogger(app.logger), zk.WithHostOptions(hostOpts...)); err != nil {
		return app, err
	}

	if app.publisher, err = app.newPublisher(ctx); err != nil {
		return app, err
	}
	app.onClose(func(context.Context) error { return app.publisher.Close() })

	if app.monitor, err = monitor.New(app.cluster, &cfg.Monitor,
		monitor.WithLogger(app.logger),
		monitor.WithMeter(app.meter),
		monitor.WithPublisher(app.publisher)); err != nil {
		return app, err
	}
	app.onClose(func(context.Context) error { return app.monitor.Close() })

	app.logger.Info("zkmon initialized",
		clog.String("cluster", app.cluster.String()),
		clog.String("notify", cfg.Notify.Driver),
		clog.Bool("breaker", cfg.Breaker.Enabled))
	return app, nil
}

// newPublisher 根据驱动建立连接并创建发布者，连接随 App 一起关闭
func (a *App) newPublisher(ctx context.Context) (notify.Publisher, error) {
	cfg := &a.cfg.Notify
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pubOpts := []notify.Option{
		notify.WithLogger(a.logger),
		notify.WithMeter(a.meter),
		notify.WithTracerProvider(otel.GetTracerProvider()),
	}

	switch cfg.Driver {
	case notify.DriverNATS:
		conn, err := connector.NewNATS(&cfg.NATS, connector.WithLogger(a.logger), connector.WithMeter(a.meter))
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return conn.Close() })
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		return notify.NewNATS(conn.GetClient(), &cfg.Config, pubOpts...)
	case notify.DriverKafka:
		conn, err := connector.NewKafka(&cfg.Kafka, connector.WithLogger(a.logger), connector.WithMeter(a.meter))
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return conn.Close() })
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		return notify.NewKafka(conn.GetClient(), &cfg.Config, pubOpts...)
	default:
		return notify.Discard(), nil
	}
}

// appendHosts 将配置中新出现的主机加入集群，返回新增数量
//
// 已存在的主机被跳过，主机未配置超时时继承集群超时。
func (a *App) appendHosts(hosts []zk.HostConfig) int {
	added := 0
	for _, cfg := range hosts {
		if cfg.Timeout == nil {
			cfg.Timeout = a.cfg.Cluster.Timeout
		}
		_, err := a.cluster.AddHostConfig(&cfg)
		switch {
		case err == nil:
			added++
		case errors.Is(err, zk.ErrHostDuplicate):
			a.logger.Debug("host already monitored", clog.String("addr", cfg.Addr), clog.Int("port", cfg.Port))
		default:
			a.logger.Warn("skip invalid host", clog.String("addr", cfg.Addr), clog.Error(err))
		}
	}
	return added
}

// watchHosts 监听配置文件中的主机列表，新增的主机在下一轮轮询中生效
func (a *App) watchHosts(ctx context.Context, loader config.Loader) error {
	ch, err := loader.Watch(ctx, hostsKey)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
			var hosts []zk.HostConfig
			if err := loader.UnmarshalKey(hostsKey, &hosts); err != nil {
				a.logger.Warn("decode hosts failed", clog.Error(err))
				continue
			}
			if n := a.appendHosts(hosts); n > 0 {
				a.logger.Info("hosts appended", clog.Int("added", n), clog.Int("total", a.cluster.Len()))
			}
		}
	}()
	return nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close 按创建的逆序释放资源
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return xerrors.Combine(errs...)
}
