package zk

import (
	"context"
	"fmt"
	"strings"

	"github.com/ceyewan/zkmonitor/breaker"
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/xerrors"
)

// Command 支持的四字命令
type Command int

const (
	CommandSrvr Command = iota + 1
	CommandStat
	CommandEnvi
	CommandRuok
	CommandDump
	CommandKill
	CommandSrst
	CommandReqs
	CommandCons
	CommandWchs
	CommandMntr
)

var commandNames = map[Command]string{
	CommandSrvr: "srvr",
	CommandStat: "stat",
	CommandEnvi: "envi",
	CommandRuok: "ruok",
	CommandDump: "dump",
	CommandKill: "kill",
	CommandSrst: "srst",
	CommandReqs: "reqs",
	CommandCons: "cons",
	CommandWchs: "wchs",
	CommandMntr: "mntr",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand 按名称查找命令，大小写与首尾空白不敏感
func ParseCommand(name string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Commands 返回所有支持的命令
func Commands() []Command {
	out := make([]Command, 0, len(commandNames))
	for c := CommandSrvr; c <= CommandMntr; c++ {
		out = append(out, c)
	}
	return out
}

// dispatch 命令分发表
var dispatch = map[Command]func(ctx context.Context, h *Host) Outcome[any]{
	CommandSrvr: func(ctx context.Context, h *Host) Outcome[any] { return erase(h.Srvr(ctx)) },
	CommandStat: func(ctx context.Context, h *Host) Outcome[any] { return erase(h.Stat(ctx)) },
	CommandEnvi: func(ctx context.Context, h *Host) Outcome[any] { return erase(h.Envi(ctx)) },
	CommandRuok: passThrough(CommandRuok),
	CommandDump: passThrough(CommandDump),
	CommandKill: passThrough(CommandKill),
	CommandSrst: passThrough(CommandSrst),
	CommandReqs: passThrough(CommandReqs),
	CommandCons: passThrough(CommandCons),
	CommandWchs: passThrough(CommandWchs),
	CommandMntr: passThrough(CommandMntr),
}

func passThrough(c Command) func(ctx context.Context, h *Host) Outcome[any] {
	return func(ctx context.Context, h *Host) Outcome[any] { return erase(h.Raw(ctx, c)) }
}

func erase[T any](o Outcome[T]) Outcome[any] {
	out := Outcome[any]{Status: o.Status, Err: o.Err}
	if o.OK() {
		out.Value = o.Value
	}
	return out
}

// run 执行命令体并将失败转换为带标签的结果，同时更新健康状态
//
// 成功时不修改健康状态，由 info 解析负责置为 HEALTHY。
func run[T any](ctx context.Context, h *Host, name string, body func(ctx context.Context) (T, error)) Outcome[T] {
	value, err := body(ctx)
	status := statusOf(err)
	if status == StatusSuccess {
		return Outcome[T]{Status: status, Value: value}
	}

	if health, ok := status.Health(); ok {
		h.setHealth(health)
	}
	h.logger.WarnContext(ctx, "command failed",
		clog.String("command", name),
		clog.String("status", status.String()),
		clog.Error(err))
	return Outcome[T]{Status: status, Err: err}
}

// fetch 执行网络命令，配置了熔断器时以主机 ID 为键受其保护
func (h *Host) fetch(ctx context.Context, cmd Command) ([]byte, error) {
	if h.opts.breaker == nil {
		return h.Execute(ctx, cmd.String())
	}
	result, err := h.opts.breaker.Execute(ctx, h.id, func() (any, error) {
		return h.Execute(ctx, cmd.String())
	})
	if xerrors.Is(err, breaker.ErrOpenState) {
		return nil, fmt.Errorf("%w: %s: %w", ErrHostDown, h.id, err)
	}
	if err != nil {
		return nil, err
	}
	data, _ := result.([]byte)
	return data, nil
}

// Srvr 执行 srvr 并解析 info
func (h *Host) Srvr(ctx context.Context) Outcome[Info] {
	return run(ctx, h, CommandSrvr.String(), func(ctx context.Context) (Info, error) {
		data, err := h.fetch(ctx, CommandSrvr)
		if err != nil {
			return nil, err
		}
		return h.ApplyInfo(splitLines(data), h.opts.updateInfo)
	})
}

// StatResult stat 命令的结果
type StatResult struct {
	Info    Info     `json:"info"`
	Head    string   `json:"head"`
	Clients []Client `json:"clients"`
}

// Stat 执行 stat，先解析 head 与客户端列表，剩余行再按 info 解析
func (h *Host) Stat(ctx context.Context) Outcome[StatResult] {
	return run(ctx, h, CommandStat.String(), func(ctx context.Context) (StatResult, error) {
		data, err := h.fetch(ctx, CommandStat)
		if err != nil {
			return StatResult{}, err
		}
		stat, notParsed, errs := ParseStat(splitLines(data))
		if len(errs) > 0 {
			h.logger.DebugContext(ctx, "stat lines with malformed client data", clog.Any("lines", errs))
		}
		info, err := h.ApplyInfo(notParsed, h.opts.updateInfo)
		if err != nil {
			return StatResult{}, err
		}
		return StatResult{Info: info, Head: stat.Head, Clients: stat.Clients}, nil
	})
}

// Envi 执行 envi 并解析 key=value 环境信息；成功时不改变健康状态
func (h *Host) Envi(ctx context.Context) Outcome[map[string]string] {
	return run(ctx, h, CommandEnvi.String(), func(ctx context.Context) (map[string]string, error) {
		data, err := h.fetch(ctx, CommandEnvi)
		if err != nil {
			return nil, err
		}
		return ParseEnvi(splitLines(data)), nil
	})
}

// Raw 执行命令并原样返回响应
func (h *Host) Raw(ctx context.Context, cmd Command) Outcome[[]byte] {
	return run(ctx, h, cmd.String(), func(ctx context.Context) ([]byte, error) {
		if _, ok := commandNames[cmd]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		}
		return h.fetch(ctx, cmd)
	})
}

// Ruok 检查服务是否在非错误状态运行，正常时响应 "imok"
func (h *Host) Ruok(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandRuok) }

// Dump 列出未完成的会话与临时节点，仅 leader 有效
func (h *Host) Dump(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandDump) }

// Kill 关闭服务
func (h *Host) Kill(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandKill) }

// Srst 重置统计
func (h *Host) Srst(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandSrst) }

// Reqs 列出未完成的请求
func (h *Host) Reqs(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandReqs) }

// Cons 列出所有连接的详细信息
func (h *Host) Cons(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandCons) }

// Wchs 列出 watch 的概要信息
func (h *Host) Wchs(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandWchs) }

// Mntr 输出可用于监控的变量列表
func (h *Host) Mntr(ctx context.Context) Outcome[[]byte] { return h.Raw(ctx, CommandMntr) }

// Run 通过分发表执行命令，未知命令返回 ErrUnknownCommand 结果并将健康状态置为 ERROR
func (h *Host) Run(ctx context.Context, cmd Command) Outcome[any] {
	handler, ok := dispatch[cmd]
	if !ok {
		return run(ctx, h, cmd.String(), func(context.Context) (any, error) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		})
	}
	return handler(ctx, h)
}
