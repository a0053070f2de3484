package testkit

import (
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, s *Server, cmd string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(s.Addr(), strconv.Itoa(s.Port())), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(cmd + "\n"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(data)
}

// TestServer_Responses 测试假服务器按命令回复并记录
func TestServer_Responses(t *testing.T) {
	s := StartServer(t, map[string]Response{"ruok": {Body: "imok"}})

	assert.Equal(t, "imok", roundTrip(t, s, "ruok"))
	assert.Equal(t, "", roundTrip(t, s, "what"))

	s.SetResponse("ruok", Response{Body: "still ok"})
	assert.Equal(t, "still ok", roundTrip(t, s, "ruok"))

	assert.Equal(t, []string{"ruok", "what", "ruok"}, s.Received())
	assert.Equal(t, "127.0.0.1", s.Addr())
	assert.NotZero(t, s.Port())
}

// TestServer_CloseInterruptsDelay 测试关闭服务器时不等待延迟回复
func TestServer_CloseInterruptsDelay(t *testing.T) {
	s := StartServer(t, map[string]Response{"srvr": {Body: "late", Delay: time.Hour}})

	conn, err := net.Dial("tcp", net.JoinHostPort(s.Addr(), strconv.Itoa(s.Port())))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("srvr\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.Received()) == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on delayed response")
	}
}

// TestNewID 测试 ID 唯一且长度固定
func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}
