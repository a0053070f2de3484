package serializer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Host   string    `json:"host" msgpack:"host"`
	Health string    `json:"health" msgpack:"health"`
	At     time.Time `json:"at" msgpack:"at"`
}

// TestNew 测试按名称创建序列化器
func TestNew(t *testing.T) {
	tests := []struct {
		in          string
		name        string
		contentType string
	}{
		{"", MsgPack, "application/msgpack"},
		{MsgPack, MsgPack, "application/msgpack"},
		{JSON, JSON, "application/json"},
	}
	for _, tt := range tests {
		s, err := New(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.name, s.Name())
		assert.Equal(t, tt.contentType, s.ContentType())
	}

	_, err := New("xml")
	assert.ErrorIs(t, err, ErrUnsupportedSerializer)
}

// TestSerializer_Decode 测试两种格式都能还原事件
func TestSerializer_Decode(t *testing.T) {
	in := sample{Host: "zk1:2181", Health: "TIMEOUT", At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	for _, name := range []string{JSON, MsgPack} {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			require.NoError(t, err)

			data, err := s.Marshal(in)
			require.NoError(t, err)

			var out sample
			require.NoError(t, s.Unmarshal(data, &out))
			assert.Equal(t, in.Host, out.Host)
			assert.Equal(t, in.Health, out.Health)
			assert.True(t, in.At.Equal(out.At))
		})
	}
}
