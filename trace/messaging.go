package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// MessagingMeta 描述标准化的消息属性
type MessagingMeta struct {
	System      string
	Destination string
	Operation   string
}

func normalizeContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normalizeTracer(tracer oteltrace.Tracer) oteltrace.Tracer {
	if tracer == nil {
		return otel.Tracer("zkmonitor.trace")
	}
	return tracer
}

func messagingAttributes(meta MessagingMeta, attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs)+3)
	if meta.System != "" {
		out = append(out, attribute.String(AttrMessagingSystem, meta.System))
	}
	if meta.Destination != "" {
		out = append(out, attribute.String(AttrMessagingDestination, meta.Destination))
	}
	if meta.Operation != "" {
		out = append(out, attribute.String(AttrMessagingOperation, meta.Operation))
	}
	return append(out, attrs...)
}

// Inject 将 ctx 中的链路信息写入 headers
func Inject(ctx context.Context, headers map[string]string) {
	otel.GetTextMapPropagator().Inject(normalizeContext(ctx), propagation.MapCarrier(headers))
}

// Extract 从 headers 恢复链路信息
func Extract(ctx context.Context, headers map[string]string) context.Context {
	return otel.GetTextMapPropagator().Extract(normalizeContext(ctx), propagation.MapCarrier(headers))
}

// StartProducerSpan 启动一个生产者 Span，并将上下文注入到返回的 headers
func StartProducerSpan(
	ctx context.Context,
	tracer oteltrace.Tracer,
	spanName string,
	meta MessagingMeta,
	attrs ...attribute.KeyValue,
) (context.Context, oteltrace.Span, map[string]string) {
	spanCtx, span := normalizeTracer(tracer).Start(normalizeContext(ctx), spanName,
		oteltrace.WithSpanKind(oteltrace.SpanKindProducer))
	span.SetAttributes(messagingAttributes(meta, attrs...)...)

	headers := map[string]string{}
	Inject(spanCtx, headers)
	return spanCtx, span, headers
}

// StartClientSpan 启动一个客户端 Span，用于对外部服务的单次调用
func StartClientSpan(
	ctx context.Context,
	tracer oteltrace.Tracer,
	spanName string,
	attrs ...attribute.KeyValue,
) (context.Context, oteltrace.Span) {
	return normalizeTracer(tracer).Start(normalizeContext(ctx), spanName,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrs...))
}

// MarkSpanError 当 err 不为 nil 时记录并将 Span 标记为错误
func MarkSpanError(span oteltrace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
