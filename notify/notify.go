// Package notify 在主机健康状态发生变化时对外发布事件。
//
// 事件经 msgpack（默认）或 json 编码后发送到 NATS subject 或 Kafka topic，
// 连接由 connector 包创建和管理，本包只负责编码、链路传播和指标。
//
// 基本使用：
//
//	natsConn, _ := connector.NewNATS(&connector.NATSConfig{URL: "nats://127.0.0.1:4222"})
//	_ = natsConn.Connect(ctx)
//
//	pub, _ := notify.NewNATS(natsConn.GetClient(), &notify.Config{Subject: "zk.health"},
//	    notify.WithLogger(logger), notify.WithMeter(meter))
//
//	_ = pub.Publish(ctx, notify.NewEvent("main", snapshot, zk.HealthHealthy, zk.HealthTimeout, err))
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/zkmonitor/zk"
)

// Event 主机健康状态变化事件
type Event struct {
	ID      string    `json:"id" msgpack:"id"`
	Cluster string    `json:"cluster" msgpack:"cluster"`
	Host    string    `json:"host" msgpack:"host"`
	DC      string    `json:"dc,omitempty" msgpack:"dc,omitempty"`
	From    string    `json:"from" msgpack:"from"`
	To      string    `json:"to" msgpack:"to"`
	Mode    string    `json:"mode" msgpack:"mode"`
	Zxid    string    `json:"zxid" msgpack:"zxid"`
	Error   string    `json:"error,omitempty" msgpack:"error,omitempty"`
	At      time.Time `json:"at" msgpack:"at"`
}

// NewEvent 根据主机快照构造事件，ID 为 UUIDv7
func NewEvent(cluster string, snap zk.HostSnapshot, from, to zk.Health, cause error) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	e := Event{
		ID:      id.String(),
		Cluster: cluster,
		Host:    snap.ID,
		DC:      snap.DC,
		From:    from.String(),
		To:      to.String(),
		Mode:    string(snap.Info.Mode()),
		Zxid:    snap.Info.Zxid(),
		At:      time.Now().UTC(),
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	return e
}

// Publisher 事件发布者，并发安全
type Publisher interface {
	Publish(ctx context.Context, e Event) error

	// Close 释放发布者自身的资源，不关闭外部注入的连接
	Close() error
}

// Discard 返回丢弃所有事件的发布者
func Discard() Publisher {
	return discard{}
}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
func (discard) Close() error                         { return nil }
