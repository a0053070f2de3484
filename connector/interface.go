// Package connector 管理 zkmonitor 通知通道所需的外部连接（NATS、Kafka）。
//
// 约定：
//   - NewXXX 只创建连接器，Connect 时才建立连接，Connect 幂等
//   - Connector 拥有底层连接的生命周期，借用方不应调用 Close
//   - 所有公开方法并发安全
//
// 基本使用：
//
//	conn, err := connector.NewNATS(&connector.NATSConfig{URL: "nats://127.0.0.1:4222"},
//		connector.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//	if err := conn.Connect(ctx); err != nil {
//		return err
//	}
//	_ = conn.GetClient().Publish("zkmon.health", data)
package connector

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Connector 定义所有连接器的通用行为
type Connector interface {
	// Connect 建立连接，可安全多次调用
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源，可安全多次调用
	Close() error

	// HealthCheck 主动检查连接健康状态并更新缓存
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回最后一次检查缓存的健康状态
	IsHealthy() bool

	// Name 返回连接实例名称
	Name() string
}

// TypedConnector 提供类型安全的客户端访问
type TypedConnector[T any] interface {
	Connector

	// GetClient 返回底层客户端，Connect 之前或 Close 之后为零值
	GetClient() T
}

// NATSConnector NATS 连接器接口，内置自动重连
type NATSConnector interface {
	TypedConnector[*nats.Conn]
}

// KafkaConnector Kafka 连接器接口，基于 franz-go
type KafkaConnector interface {
	TypedConnector[*kgo.Client]
}
