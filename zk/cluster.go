package zk

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/xerrors"
)

// DefaultClusterName 未配置名称时使用的集群名
const DefaultClusterName = "default"

// ClusterConfig 集群配置
type ClusterConfig struct {
	// Name 集群名称（默认：default）
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Timeout 未单独配置超时的主机使用的超时秒数
	Timeout *float64 `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Hosts 按顺序加入集群的主机
	Hosts []HostConfig `json:"hosts" yaml:"hosts" mapstructure:"hosts"`
}

// ClusterOption 集群选项
type ClusterOption func(*clusterOptions)

type clusterOptions struct {
	logger   clog.Logger
	hostOpts []Option
}

// WithClusterLogger 设置集群 Logger，自动追加 "zk.cluster" 命名空间
func WithClusterLogger(l clog.Logger) ClusterOption {
	return func(o *clusterOptions) {
		if l != nil {
			o.logger = l.WithNamespace("zk", "cluster")
		}
	}
}

// WithHostOptions 设置通过 AddHostConfig 创建主机时使用的选项
func WithHostOptions(opts ...Option) ClusterOption {
	return func(o *clusterOptions) {
		o.hostOpts = append(o.hostOpts, opts...)
	}
}

// Cluster 一组被监控的 ZooKeeper 节点
//
// 主机列表只追加不删除，保持插入顺序；数据中心列表去重且大小写敏感。
type Cluster struct {
	name   string
	logger clog.Logger
	opts   clusterOptions

	mu          sync.RWMutex
	hosts       []*Host
	datacenters []string
}

// NewCluster 创建空集群
func NewCluster(name string, opts ...ClusterOption) *Cluster {
	o := clusterOptions{logger: clog.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		name = DefaultClusterName
	}
	return &Cluster{
		name:   name,
		logger: o.logger.With(clog.String("cluster", name)),
		opts:   o,
	}
}

// NewClusterFromConfig 创建集群并按顺序加入配置中的主机，任一主机失败即返回错误
func NewClusterFromConfig(cfg *ClusterConfig, opts ...ClusterOption) (*Cluster, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "cluster config is nil")
	}
	c := NewCluster(cfg.Name, opts...)
	for i := range cfg.Hosts {
		hc := cfg.Hosts[i]
		if hc.Timeout == nil && cfg.Timeout != nil {
			timeout := *cfg.Timeout
			hc.Timeout = &timeout
		}
		if _, err := c.AddHostConfig(&hc); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Name 返回集群名称
func (c *Cluster) Name() string { return c.name }

func (c *Cluster) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s (%d hosts)", c.name, len(c.hosts))
}

// AddHostConfig 根据配置创建主机并加入集群
//
// 创建失败返回 ErrHostCreate，加入失败的错误同 AddHost。
func (c *Cluster) AddHostConfig(cfg *HostConfig) (*Host, error) {
	h, err := NewHost(cfg, c.opts.hostOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostCreate, err)
	}
	if err := c.AddHost(h); err != nil {
		return nil, err
	}
	return h, nil
}

// AddHost 将主机加入集群
//
// 相同 "address:port" 的主机已存在时返回 ErrHostDuplicate。成功后记录主机所属集群，
// 并登记其数据中心。
func (c *Cluster) AddHost(h *Host) error {
	if h == nil {
		return xerrors.Wrap(ErrHostAdd, "host is nil")
	}

	c.mu.Lock()
	if c.isDuplicatedLocked(h) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s already in cluster %s", ErrHostDuplicate, h.ID(), c.name)
	}
	h.setClusterName(c.name)
	c.hosts = append(c.hosts, h)
	c.mu.Unlock()

	if dc := h.Datacenter(); dc != "" {
		c.AddDatacenter(dc)
	}
	c.logger.Info("host added", clog.String("host", h.ID()), clog.String("dc", h.Datacenter()))
	return nil
}

// IsDuplicated 报告集群中是否已有相同标识的主机
func (c *Cluster) IsDuplicated(h *Host) bool {
	if h == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isDuplicatedLocked(h)
}

func (c *Cluster) isDuplicatedLocked(h *Host) bool {
	return slices.ContainsFunc(c.hosts, func(existing *Host) bool {
		return existing.ID() == h.ID()
	})
}

// AddDatacenter 登记数据中心，返回是否为新增；空名称被忽略
func (c *Cluster) AddDatacenter(name string) bool {
	if name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Contains(c.datacenters, name) {
		return false
	}
	c.datacenters = append(c.datacenters, name)
	return true
}

// Datacenters 按登记顺序返回数据中心
func (c *Cluster) Datacenters() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.datacenters)
}

// Host 按 "address:port" 查找主机，忽略大小写与首尾空白
func (c *Cluster) Host(name string) (*Host, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.hosts {
		if h.ID() == name {
			return h, true
		}
	}
	return nil, false
}

// Hosts 按插入顺序返回主机
func (c *Cluster) Hosts() []*Host {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.hosts)
}

// Len 返回主机数量
func (c *Cluster) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hosts)
}

// ClusterStatus 集群状态汇总
type ClusterStatus struct {
	Name        string         `json:"name"`
	Datacenters []string       `json:"datacenters"`
	Leader      string         `json:"leader,omitempty"`
	Counts      map[string]int `json:"counts"`
	Hosts       []HostSnapshot `json:"hosts"`
}

// Healthy 报告是否所有主机都为 HEALTHY，空集群视为不健康
func (s ClusterStatus) Healthy() bool {
	return len(s.Hosts) > 0 && s.Counts[HealthHealthy.String()] == len(s.Hosts)
}

// Status 汇总各主机的快照，Leader 为第一个 mode 为 LEADER 的主机
func (c *Cluster) Status() ClusterStatus {
	hosts := c.Hosts()
	status := ClusterStatus{
		Name:        c.name,
		Datacenters: c.Datacenters(),
		Counts:      make(map[string]int),
		Hosts:       make([]HostSnapshot, 0, len(hosts)),
	}
	if status.Datacenters == nil {
		status.Datacenters = []string{}
	}
	for _, h := range hosts {
		snap := h.Snapshot()
		status.Counts[snap.Health.String()]++
		if status.Leader == "" && snap.Info.Mode() == ModeLeader {
			status.Leader = snap.ID
		}
		status.Hosts = append(status.Hosts, snap)
	}
	return status
}
