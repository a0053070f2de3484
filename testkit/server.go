package testkit

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Response 描述假服务器对某个命令的回复
type Response struct {
	Body  string        // 写回的内容，写完后关闭连接
	Delay time.Duration // 写回前的等待时间
}

// Server 是一个监听 127.0.0.1 随机端口的四字命令服务器
//
// 每个连接读取一行命令，按 Responses 回复后关闭连接；未知命令直接关闭。
type Server struct {
	ln      net.Listener
	closing chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	responses map[string]Response
	received  []string
}

// StartServer 启动假服务器，测试结束时自动关闭
func StartServer(t *testing.T, responses map[string]Response) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &Server{
		ln:        ln,
		closing:   make(chan struct{}),
		responses: make(map[string]Response, len(responses)),
	}
	for cmd, resp := range responses {
		s.responses[cmd] = resp
	}

	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr 返回监听地址（IP 字面量）
func (s *Server) Addr() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

// Port 返回监听端口
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// SetResponse 替换某个命令的回复
func (s *Server) SetResponse(cmd string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[cmd] = resp
}

// Received 返回按到达顺序收到的命令
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Close 停止监听并等待所有连接处理结束
func (s *Server) Close() {
	select {
	case <-s.closing:
		return
	default:
		close(s.closing)
	}
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	cmd := strings.TrimSpace(line)

	s.mu.Lock()
	s.received = append(s.received, cmd)
	resp, ok := s.responses[cmd]
	s.mu.Unlock()
	if !ok {
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-s.closing:
			return
		}
	}
	_, _ = conn.Write([]byte(resp.Body))
}
