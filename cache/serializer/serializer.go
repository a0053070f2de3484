// Package serializer 提供 JSON 与 MessagePack 两种序列化器，用于事件编码。
package serializer

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/zkmonitor/xerrors"
)

// 支持的序列化器名称
const (
	JSON    = "json"
	MsgPack = "msgpack"
)

// ErrUnsupportedSerializer 不支持的序列化器类型
var ErrUnsupportedSerializer = xerrors.New("unsupported serializer type")

// Serializer 定义序列化接口
type Serializer interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error

	// Name 返回序列化器名称
	Name() string

	// ContentType 返回 MIME 类型，写入消息头供消费方识别
	ContentType() string
}

// JSONSerializer JSON 序列化器
type JSONSerializer struct{}

// Marshal 序列化为 JSON
func (JSONSerializer) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Unmarshal 从 JSON 反序列化
func (JSONSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

func (JSONSerializer) Name() string { return JSON }

func (JSONSerializer) ContentType() string { return "application/json" }

// MessagePackSerializer MessagePack 序列化器
type MessagePackSerializer struct{}

// Marshal 序列化为 MessagePack
func (MessagePackSerializer) Marshal(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

// Unmarshal 从 MessagePack 反序列化
func (MessagePackSerializer) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

func (MessagePackSerializer) Name() string { return MsgPack }

func (MessagePackSerializer) ContentType() string { return "application/msgpack" }

// New 创建序列化器
//
// 支持的序列化器类型:
//   - "json": 标准库 JSON 序列化，便于调试
//   - "msgpack": MessagePack 二进制序列化，体积更小（默认）
func New(serializerType string) (Serializer, error) {
	switch serializerType {
	case MsgPack, "":
		return MessagePackSerializer{}, nil
	case JSON:
		return JSONSerializer{}, nil
	default:
		return nil, xerrors.Wrapf(ErrUnsupportedSerializer, "%q", serializerType)
	}
}
