package notify

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/zkmonitor/cache/serializer"
	"github.com/ceyewan/zkmonitor/clog"
	"github.com/ceyewan/zkmonitor/metrics"
	"github.com/ceyewan/zkmonitor/trace"
	"github.com/ceyewan/zkmonitor/xerrors"
)

// 消息头
const (
	HeaderContentType = "content-type"
	HeaderEventID     = "event-id"
)

// sendFunc 将编码后的事件写入具体的消息系统
type sendFunc func(ctx context.Context, e Event, data []byte, headers map[string]string) error

// publisher 负责编码、链路与指标，具体发送交给 send
type publisher struct {
	system  string
	subject string
	codec   serializer.Serializer
	logger  clog.Logger
	tracer  oteltrace.Tracer
	send    sendFunc

	published metrics.Counter
	duration  metrics.Histogram
}

func newPublisher(system string, cfg *Config, opt options, send sendFunc) (*publisher, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	codec, err := serializer.New(cfg.Codec)
	if err != nil {
		return nil, err
	}

	tp := opt.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	p := &publisher{
		system:  system,
		subject: cfg.Subject,
		codec:   codec,
		logger:  opt.logger.With(clog.String("driver", system), clog.String("subject", cfg.Subject)),
		tracer:  tp.Tracer("zkmonitor/notify"),
		send:    send,
	}
	if p.published, err = opt.meter.Counter(MetricPublishTotal, "健康事件发布次数"); err != nil {
		return nil, err
	}
	if p.duration, err = opt.meter.Histogram(MetricPublishDuration, "健康事件发布耗时", metrics.WithUnit("s")); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *publisher) Publish(ctx context.Context, e Event) error {
	ctx, span, headers := trace.StartProducerSpan(ctx, p.tracer, trace.SpanNameNotifyPublish(p.subject),
		trace.MessagingMeta{System: p.system, Destination: p.subject, Operation: trace.MessagingOperationPublish},
		attribute.String(trace.AttrZKHost, e.Host))
	defer span.End()

	start := time.Now()
	err := p.publish(ctx, e, headers)

	outcome := "success"
	if err != nil {
		outcome = "error"
		trace.MarkSpanError(span, err)
		p.logger.ErrorContext(ctx, "publish event failed", clog.String("host", e.Host), clog.Error(err))
	} else {
		p.logger.DebugContext(ctx, "event published",
			clog.String("id", e.ID), clog.String("host", e.Host),
			clog.String("from", e.From), clog.String("to", e.To))
	}
	p.published.Inc(ctx, metrics.L(LabelDriver, p.system), metrics.L(LabelOutcome, outcome))
	p.duration.Record(ctx, time.Since(start).Seconds(), metrics.L(LabelDriver, p.system))
	return err
}

func (p *publisher) publish(ctx context.Context, e Event, headers map[string]string) error {
	data, err := p.codec.Marshal(e)
	if err != nil {
		return xerrors.Wrap(err, "encode event")
	}
	headers[HeaderContentType] = p.codec.ContentType()
	headers[HeaderEventID] = e.ID
	if err := p.send(ctx, e, data, headers); err != nil {
		return xerrors.Wrapf(err, "publish to %s %s", p.system, p.subject)
	}
	return nil
}

func (p *publisher) Close() error { return nil }

// Multi 将事件依次发送给所有发布者，返回合并后的错误
func Multi(pubs ...Publisher) Publisher {
	return multi(pubs)
}

type multi []Publisher

func (m multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return xerrors.Combine(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return xerrors.Combine(errs...)
}
