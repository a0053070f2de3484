package zk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/trace"
	"github.com/ceyewan/zkmonitor/xerrors"
)

// Execute 向主机发送一条四字命令并读取直到对端关闭连接的全部响应
//
// 超时从调用开始计算，覆盖地址解析、连接、写入与读取。超时触发时连接被强制关闭，
// 正在进行的读取随之中断，调用只会观察到 ErrConnectionTimeout 或响应数据之一。
// Execute 不修改健康状态，也不做任何重试。
func (h *Host) Execute(ctx context.Context, command string) ([]byte, error) {
	cmd := strings.TrimSpace(command)
	ctx, span := trace.StartClientSpan(ctx, h.tracer, trace.SpanNameZKExecute(cmd),
		attribute.String(trace.AttrZKCommand, cmd),
		attribute.String(trace.AttrZKHost, h.id))
	defer span.End()

	start := time.Now()
	data, err := h.execute(ctx, cmd)
	status := statusOf(err)

	span.SetAttributes(attribute.String(trace.AttrZKOutcome, status.String()))
	trace.MarkSpanError(span, err)
	h.commands.Inc(ctx,
		metrics.L(metrics.LabelHost, h.id),
		metrics.L(metrics.LabelCommand, cmd),
		metrics.L(metrics.LabelOutcome, status.String()))
	h.duration.Record(ctx, time.Since(start).Seconds(),
		metrics.L(metrics.LabelHost, h.id),
		metrics.L(metrics.LabelCommand, cmd))
	return data, err
}

func (h *Host) execute(parent context.Context, cmd string) (data []byte, err error) {
	timeout := h.Timeout()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	addr, err := h.resolve(ctx)
	if err != nil {
		return nil, h.interrupted(ctx, timeout, err)
	}
	if ctx.Err() != nil {
		return nil, h.interrupted(ctx, timeout, ctx.Err())
	}

	conn, err := h.opts.dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(h.port)))
	if err != nil {
		return nil, h.interrupted(ctx, timeout, err)
	}
	defer conn.Close()

	// 超时到达时关闭连接，使阻塞中的写入或读取立即返回
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	if _, err = conn.Write([]byte(cmd + "\n")); err == nil {
		data, err = io.ReadAll(conn)
	}
	if !stop() {
		return nil, h.interrupted(ctx, timeout, err)
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "zk: %s on %s", cmd, h.id)
	}
	return data, nil
}

// interrupted 在 ctx 已结束时返回超时或取消错误，否则包装原始错误
func (h *Host) interrupted(ctx context.Context, timeout time.Duration, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return xerrors.Wrapf(ErrConnectionTimeout, "unable to connect to %s within %s", h.id, timeout)
	case ctx.Err() != nil:
		return xerrors.Wrapf(ctx.Err(), "zk: %s", h.id)
	case err == nil:
		return nil
	default:
		return xerrors.Wrapf(err, "zk: %s", h.id)
	}
}

// resolve 解析主机地址，只取第一个结果；IP 字面量不做查询
func (h *Host) resolve(ctx context.Context) (string, error) {
	if net.ParseIP(h.address) != nil {
		return h.address, nil
	}
	addrs, err := h.opts.resolver.LookupHost(ctx, h.address)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrResolve, h.address, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("%w: %s: no addresses", ErrResolve, h.address)
	}
	return addrs[0], nil
}
