package zk

import (
	"strings"

	"github.com/ceyewan/zkmonitor/xerrors"
)

// Health 主机最近一次命令执行得出的健康状态
type Health int

const (
	// HealthUnchecked 尚未执行过任何命令
	HealthUnchecked Health = iota
	// HealthHealthy 最近一次 info 解析成功且校验通过
	HealthHealthy
	// HealthError 网络错误或解析、校验失败
	HealthError
	// HealthTimeout 命令超时
	HealthTimeout
	// HealthDown 熔断器打开，主机被判定为不可用
	HealthDown
)

var healthNames = [...]string{
	HealthUnchecked: "UNCHECKED",
	HealthHealthy:   "HEALTHY",
	HealthError:     "ERROR",
	HealthTimeout:   "TIMEOUT",
	HealthDown:      "DOWN",
}

func (h Health) String() string {
	if h < 0 || int(h) >= len(healthNames) {
		return "UNKNOWN"
	}
	return healthNames[h]
}

// MarshalText 以名称序列化健康状态
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText 解析健康状态名称，大小写不敏感
func (h *Health) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, n := range healthNames {
		if n == name {
			*h = Health(i)
			return nil
		}
	}
	return xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown health %q", string(text))
}

// Mode 节点在 ZooKeeper 集群中的角色
type Mode string

const (
	ModeLeader   Mode = "LEADER"
	ModeFollower Mode = "FOLLOWER"
	ModeUnknown  Mode = "UNKNOWN"
)

// Valid 判断是否为可接受的角色，standalone 等其他角色视为无效
func (m Mode) Valid() bool {
	return m == ModeLeader || m == ModeFollower
}

// Status 一次命令执行结果的标签
type Status int

const (
	StatusSuccess Status = iota
	StatusTimeout
	StatusError
	StatusDown
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusTimeout:
		return "timeout"
	case StatusError:
		return "error"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

// Health 返回失败结果对应的健康状态；成功时不改变健康状态，ok 为 false
func (s Status) Health() (h Health, ok bool) {
	switch s {
	case StatusTimeout:
		return HealthTimeout, true
	case StatusDown:
		return HealthDown, true
	case StatusError:
		return HealthError, true
	default:
		return HealthUnchecked, false
	}
}

// statusOf 将执行错误归类为结果标签
func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case xerrors.Is(err, ErrHostDown):
		return StatusDown
	case xerrors.Is(err, ErrConnectionTimeout):
		return StatusTimeout
	default:
		return StatusError
	}
}

// Outcome 命令执行的带标签结果
//
// 失败不会以 error 形式向上传播，调用方通过 OK 判断，再通过 Host.Health 查看原因。
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

// OK 报告命令是否成功
func (o Outcome[T]) OK() bool {
	return o.Status == StatusSuccess
}
