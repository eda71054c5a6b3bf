//go:build !windows

package xdbg

import (
	"net"
	"runtime"
	"time"
)

// Accept 失败后的重试退避区间。
const (
	acceptDelayInitial = 5 * time.Millisecond
	acceptDelayMax     = 1 * time.Second
)

// acceptLoop 接受连接循环。
// Accept 失败时按 net/http.Server 的惯例做指数退避（5ms 起，翻倍至 1s 封顶），
// 成功接受一个连接后退避归零。
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	var delay time.Duration

	for {
		if s.shouldStopAccepting() {
			return
		}

		conn, identity, err := s.acceptConnection()
		if err != nil {
			if delay == 0 {
				delay = acceptDelayInitial
			} else {
				delay *= 2
			}
			if delay > acceptDelayMax {
				delay = acceptDelayMax
			}
			if s.handleAcceptError(err, delay) {
				return
			}
			continue
		}

		delay = 0
		s.handleNewConnection(conn, identity)
	}
}

// shouldStopAccepting 检查是否应该停止接受连接。
func (s *Server) shouldStopAccepting() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
	}
	return ServerState(s.state.Load()) != ServerStateListening
}

// acceptConnection 接受一个连接。
// 仅在读取 transport 引用时短暂持锁；Accept 本身是阻塞操作，持锁调用会与
// stopListening 的 Close 互相等待形成死锁。transport 在 Accept 期间被关闭时，
// Accept 以错误返回。
func (s *Server) acceptConnection() (net.Conn, *PeerIdentity, error) {
	s.transportMu.Lock()
	transport := s.transport
	s.transportMu.Unlock()

	if transport == nil {
		return nil, nil, ErrNotRunning
	}

	return transport.Accept()
}

// handleAcceptError 处理 Accept 错误，返回 true 表示应该停止循环。
// 状态已离开 Listening 说明错误来自主动关闭，直接退出；
// 否则记录审计并等待 delay 后重试。
func (s *Server) handleAcceptError(err error, delay time.Duration) bool {
	if ServerState(s.state.Load()) != ServerStateListening {
		return true
	}
	s.audit(AuditEventCommandFailed, nil, "accept", nil, 0, err)
	select {
	case <-s.ctx.Done():
		return true
	case <-time.After(delay):
		return false
	}
}

// handleNewConnection 处理新连接。
func (s *Server) handleNewConnection(conn net.Conn, identity *PeerIdentity) {
	// 设计决策: 会话计数用 CAS 循环而非互斥锁。循环必然终止——要么 CAS 成功占到
	// 名额，要么 sessionCount 已达 MaxSessions 走 reject 分支。调试服务并发度极低
	// （MaxSessions 默认 1），竞争几乎不存在；连续 CAS 失败超过阈值后 Gosched
	// 让出 CPU，避免极端情况下的自旋。
	const maxCASRetries = 10
	for i := 0; ; i++ {
		current := s.sessionCount.Load()
		if int(current) >= s.opts.MaxSessions {
			s.rejectConnection(conn)
			return
		}
		if s.sessionCount.CompareAndSwap(current, current+1) {
			break
		}
		if i >= maxCASRetries {
			runtime.Gosched()
		}
	}

	// 会话 goroutine 纳入 WaitGroup，关闭流程等待其退出
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sessionCount.Add(-1)

		session := newSession(s.ctx, conn, identity, s)
		session.Run()
	}()

	// 有新连接说明调试服务仍在使用，顺延自动关闭时间
	s.resetShutdownTimer()
}

// rejectConnection 拒绝连接（会话数超限）。
// 尽力把 ErrTooManySessions 响应写回客户端后关闭连接；
// 写超时防止慢客户端拖住 accept 循环。
func (s *Server) rejectConnection(conn net.Conn) {
	if s.opts.SessionWriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.opts.SessionWriteTimeout)); err != nil {
			s.audit(AuditEventCommandFailed, nil, "reject:deadline", nil, 0, err)
		}
	}
	codec := NewCodec()
	errResp := NewErrorResponse(ErrTooManySessions)
	if data, err := codec.EncodeResponse(errResp); err == nil {
		if _, writeErr := conn.Write(data); writeErr != nil {
			s.audit(AuditEventCommandFailed, nil, "reject:write", nil, 0, writeErr)
		}
	}
	if err := conn.Close(); err != nil {
		s.audit(AuditEventCommandFailed, nil, "reject:close", nil, 0, err)
	}
}
