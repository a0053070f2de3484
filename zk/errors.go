package zk

import (
	"github.com/ceyewan/zkmonitor/xerrors"
)

// 主机执行与解析错误，由命令包装器吸收并转换为健康状态
var (
	// ErrConnectionTimeout 命令在超时时间内未完成，连接已被强制关闭
	ErrConnectionTimeout = xerrors.New("zk: connection timeout")

	// ErrInvalidInfo 响应无法解析或缺少有效的 zxid/mode
	ErrInvalidInfo = xerrors.New("zk: invalid info")

	// ErrResolve 地址解析失败
	ErrResolve = xerrors.New("zk: resolve address failed")

	// ErrUnknownCommand 不支持的四字命令
	ErrUnknownCommand = xerrors.New("zk: unknown command")

	// ErrHostDown 熔断器打开，主机被判定为不可用
	ErrHostDown = xerrors.New("zk: host down")
)

// 超时配置错误，在设置时同步返回，从不静默修正
var (
	// ErrTimeoutType 超时值不是数字
	ErrTimeoutType = xerrors.New("zk: timeout must be int or float")

	// ErrTimeoutValue 超时值为负数或非有限值
	ErrTimeoutValue = xerrors.New("zk: timeout must be a non-negative finite number")
)

// 集群注册错误，始终返回给调用方
var (
	// ErrHostCreate 根据配置创建主机失败
	ErrHostCreate = xerrors.New("zk: cannot create host")

	// ErrHostAdd 无法将主机加入集群
	ErrHostAdd = xerrors.New("zk: cannot add host")

	// ErrHostDuplicate 集群中已存在相同标识的主机，同时满足 errors.Is(err, ErrHostAdd)
	ErrHostDuplicate = xerrors.Wrap(ErrHostAdd, "duplicate host")
)
