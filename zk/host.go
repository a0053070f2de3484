package zk

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/xerrors"
)

const (
	// DefaultPort ZooKeeper 客户端端口
	DefaultPort = 2181
	// DefaultTimeout 单次命令的默认超时，包含解析、连接、请求与响应
	DefaultTimeout = 2 * time.Second
)

// HostConfig 主机配置
type HostConfig struct {
	// Addr IP 或主机名（必填）
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Port 端口（默认：2181）
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// DC 所在数据中心，可选
	DC string `json:"dc" yaml:"dc" mapstructure:"dc"`

	// Timeout 命令超时秒数，nil 时使用默认值 2
	Timeout *float64 `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

func (c *HostConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
}

func (c *HostConfig) validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "addr is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "port %d out of range", c.Port)
	}
	return nil
}

// Host 一个 ZooKeeper 节点
//
// 地址与端口在创建后不可变，健康状态、info 和超时由读写锁保护，可并发使用。
type Host struct {
	address    string
	port       int
	datacenter string
	id         string

	opts   options
	logger clog.Logger
	tracer oteltrace.Tracer

	commands metrics.Counter
	duration metrics.Histogram

	mu          sync.RWMutex
	clusterName string
	timeout     time.Duration
	health      Health
	info        Info
}

// NewHost 创建主机
func NewHost(cfg *HostConfig, opts ...Option) (*Host, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "host config is nil")
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts...)
	address := strings.ToLower(strings.TrimSpace(cfg.Addr))
	h := &Host{
		address:    address,
		port:       cfg.Port,
		datacenter: cfg.DC,
		id:         fmt.Sprintf("%s:%d", address, cfg.Port),
		opts:       o,
		timeout:    DefaultTimeout,
		health:     HealthUnchecked,
		info: Info{
			InfoZxid:        "",
			InfoConnections: "",
			InfoMode:        string(ModeUnknown),
		},
	}
	h.logger = o.logger.With(clog.String("host", h.id))

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	h.tracer = tp.Tracer("zkmonitor/zk")

	if cfg.Timeout != nil {
		if err := h.SetTimeoutSeconds(*cfg.Timeout); err != nil {
			return nil, err
		}
	}

	var err error
	if h.commands, err = o.meter.Counter(MetricCommandTotal, "四字命令执行次数"); err != nil {
		return nil, err
	}
	if h.duration, err = o.meter.Histogram(MetricCommandDuration, "四字命令执行耗时",
		metrics.WithUnit("s"), metrics.WithBuckets(durationBuckets...)); err != nil {
		return nil, err
	}
	return h, nil
}

// ID 返回规范标识 "address:port"
func (h *Host) ID() string { return h.id }

func (h *Host) String() string { return h.id }

// Address 返回小写地址
func (h *Host) Address() string { return h.address }

// Port 返回端口
func (h *Host) Port() int { return h.port }

// Datacenter 返回数据中心标签，可能为空
func (h *Host) Datacenter() string { return h.datacenter }

// ClusterName 返回所属集群名称，未加入集群时为空
func (h *Host) ClusterName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clusterName
}

func (h *Host) setClusterName(name string) {
	h.mu.Lock()
	h.clusterName = name
	h.mu.Unlock()
}

// Timeout 返回命令超时
func (h *Host) Timeout() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.timeout
}

// SetTimeout 设置命令超时，负数返回 ErrTimeoutValue；0 表示立即超时
func (h *Host) SetTimeout(d time.Duration) error {
	if d < 0 {
		return xerrors.Wrapf(ErrTimeoutValue, "got %s", d)
	}
	h.mu.Lock()
	h.timeout = d
	h.mu.Unlock()
	return nil
}

// SetTimeoutSeconds 以秒设置命令超时
//
// 只接受整数、浮点数和 time.Duration，其他类型返回 ErrTimeoutType；
// 负数、NaN 和无穷大返回 ErrTimeoutValue。
func (h *Host) SetTimeoutSeconds(v any) error {
	if d, ok := v.(time.Duration); ok {
		return h.SetTimeout(d)
	}
	secs, err := toSeconds(v)
	if err != nil {
		return err
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 || secs >= maxTimeoutSeconds {
		return xerrors.Wrapf(ErrTimeoutValue, "got %v", v)
	}
	return h.SetTimeout(time.Duration(secs * float64(time.Second)))
}

var maxTimeoutSeconds = float64(math.MaxInt64) / float64(time.Second)

func toSeconds(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, xerrors.Wrapf(ErrTimeoutType, "got %T", v)
	}
}

// Health 返回当前健康状态
func (h *Host) Health() Health {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}

func (h *Host) setHealth(health Health) {
	h.mu.Lock()
	prev := h.health
	h.health = health
	h.mu.Unlock()
	if prev != health {
		h.logger.Debug("health changed", clog.String("from", prev.String()), clog.String("to", health.String()))
	}
}

// Info 返回持久 info 的副本
func (h *Host) Info() Info {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.info.clone()
}

// ApplyInfo 解析 info 行并更新健康状态
//
// 解析或校验失败时健康状态置为 ERROR 并返回 ErrInvalidInfo；
// 成功时置为 HEALTHY，update 为 true 时将结果合并进主机 info。
func (h *Host) ApplyInfo(lines []string, update bool) (Info, error) {
	info, err := ParseInfo(lines)
	if err != nil {
		h.setHealth(HealthError)
		return nil, err
	}

	h.mu.Lock()
	prev := h.health
	h.health = HealthHealthy
	if update {
		for k, v := range info {
			h.info[k] = v
		}
	}
	h.mu.Unlock()
	if prev != HealthHealthy {
		h.logger.Debug("health changed", clog.String("from", prev.String()), clog.String("to", HealthHealthy.String()))
	}
	return info, nil
}

// HostSnapshot 主机状态的只读副本，可直接序列化
type HostSnapshot struct {
	ID      string  `json:"id"`
	Addr    string  `json:"addr"`
	Port    int     `json:"port"`
	DC      string  `json:"dc,omitempty"`
	Cluster string  `json:"cluster,omitempty"`
	Timeout float64 `json:"timeout"`
	Health  Health  `json:"health"`
	Info    Info    `json:"info"`
}

// Snapshot 返回主机当前状态
func (h *Host) Snapshot() HostSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HostSnapshot{
		ID:      h.id,
		Addr:    h.address,
		Port:    h.port,
		DC:      h.datacenter,
		Cluster: h.clusterName,
		Timeout: h.timeout.Seconds(),
		Health:  h.health,
		Info:    h.info.clone(),
	}
}
