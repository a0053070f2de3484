package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func newBufferLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts = append(opts, withBuffer(buf))
	logger, err := New(&Config{Level: level, Format: "json", Output: "buffer"}, opts...)
	require.NoError(t, err)
	return logger, buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

// TestNew_InvalidConfig 测试非法配置被拒绝
func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.Error(t, err)

	_, err = New(&Config{Format: "xml"})
	assert.Error(t, err)

	_, err = New(&Config{Output: "buffer"})
	assert.Error(t, err, "buffer 输出必须提供缓冲区")
}

// TestLogger_Namespace 测试命名空间逐级拼接
func TestLogger_Namespace(t *testing.T) {
	logger, buf := newBufferLogger(t, "info", WithNamespace("zkmon"))

	logger.WithNamespace("zk", "host").Info("checked", String("host", "10.0.0.1:2181"))

	line := decodeLine(t, buf)
	assert.Equal(t, "zkmon.zk.host", line[NamespaceKey])
	assert.Equal(t, "checked", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "10.0.0.1:2181", line["host"])
}

// TestLogger_With 测试预设字段不会在兄弟 Logger 之间泄漏
func TestLogger_With(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug")

	base := logger.With(String("cluster", "prod"))
	a := base.With(String("host", "a"))
	_ = base.With(String("host", "b"))

	a.Debug("poll")
	line := decodeLine(t, buf)
	assert.Equal(t, "prod", line["cluster"])
	assert.Equal(t, "a", line["host"])
}

// TestLogger_ContextField 测试从 Context 中提取字段
func TestLogger_ContextField(t *testing.T) {
	key := ctxKey("poll_id")
	logger, buf := newBufferLogger(t, "info", WithContextField(key, "poll_id"))

	ctx := context.WithValue(context.Background(), key, "p-1")
	logger.InfoContext(ctx, "poll finished")

	line := decodeLine(t, buf)
	assert.Equal(t, "p-1", line["poll_id"])
}

// TestLogger_SetLevel 测试动态调整日志级别
func TestLogger_SetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "warn")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	require.NoError(t, logger.SetLevel(DebugLevel))
	logger.Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

// TestFields_Error 测试错误字段
func TestFields_Error(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Warn("failed", Error(errors.New("boom")), Error(nil))
	line := decodeLine(t, buf)
	assert.Equal(t, "boom", line["err_msg"])
	assert.NotContains(t, line, "")

	buf.Reset()
	logger.Error("failed", ErrorWithCode(errors.New("late"), "ZK_TIMEOUT"))
	line = decodeLine(t, buf)
	group, ok := line["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ZK_TIMEOUT", group["code"])
	assert.Equal(t, "late", group["msg"])
}

// TestParseLevel 测试级别解析
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"Warn", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"trace", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDiscard 测试静默 Logger
func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing")
	assert.Equal(t, l, l.With(String("k", "v")).WithNamespace("x"))
	assert.NoError(t, l.SetLevel(DebugLevel))
}
