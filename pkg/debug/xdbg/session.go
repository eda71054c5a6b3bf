//go:build !windows

package xdbg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/omeyang/lockkit/pkg/observability/xmetrics"
)

// Session 调试会话，对应一条已接受的连接。
type Session struct {
	conn     net.Conn
	identity *IdentityInfo
	codec    *Codec
	server   *Server

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool // 写失败或 Close 后置位，阻止继续写入

	// 设计决策: closed 与 connClosed 是两个标志。写失败只是不能再写，
	// 资源（cancel、SessionEnd 审计、conn.Close）还没有回收；回收由
	// connClosed 保证恰好一次。合成一个标志的话，写失败置位后 Run 的
	// defer Close 会误以为已清理而跳过，FD 与会话审计一起丢掉。
	connClosed bool
}

// newSession 创建会话。
func newSession(ctx context.Context, conn net.Conn, identity *PeerIdentity, server *Server) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)

	return &Session{
		conn:     conn,
		identity: ResolveIdentity(identity),
		codec:    NewCodec(),
		server:   server,
		ctx:      sessionCtx,
		cancel:   cancel,
	}
}

// Run 驱动会话的读取-执行循环，返回前回收资源。
func (s *Session) Run() {
	defer func() {
		if err := s.Close(); err != nil {
			s.server.audit(AuditEventCommandFailed, s.identity, "session:close", nil, 0, err)
		}
	}()

	s.server.audit(AuditEventSessionStart, s.identity, "", nil, 0, nil)

	for !s.done() {
		req, ok := s.readRequest()
		if !ok {
			return
		}
		s.handleRequest(req)
	}
}

// done 判断会话是否应当结束（已关闭或 ctx 取消）。
func (s *Session) done() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return true
	}

	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// auditInternal 记录会话内部故障（非命令本身的失败）。
func (s *Session) auditInternal(op string, err error) {
	s.server.audit(AuditEventCommandFailed, s.identity, "", nil, 0, fmt.Errorf("%s: %w", op, err))
}

// readRequest 读取一条请求。第二个返回值为 false 时调用方应退出循环。
func (s *Session) readRequest() (*Request, bool) {
	// 读超时限制恶意客户端只连不发
	if s.server.opts.SessionReadTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.server.opts.SessionReadTimeout)); err != nil {
			s.auditInternal("set read deadline failed", err)
			return nil, false
		}
	}

	req, err := s.codec.DecodeRequest(s.conn)
	if err != nil {
		if errors.Is(err, ErrConnectionClosed) {
			return nil, false
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			s.sendError(ErrTimeout)
			return nil, false
		}
		s.sendError(fmt.Errorf("decode request: %w", err))
		return nil, false
	}

	// 命令执行期间不受读超时约束，执行超时由 CommandTimeout 单独控制
	if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
		s.auditInternal("clear read deadline failed", err)
		return nil, false
	}

	return req, true
}

// rejectCommand 拒绝执行命令并回写错误响应。
func (s *Session) rejectCommand(req *Request, start time.Time, event AuditEvent, err error) {
	s.server.audit(event, s.identity, req.Command, req.Args, time.Since(start), err)
	s.sendError(err)
}

// handleRequest 处理一条请求。
//
// 设计决策: 执行前只做命令白名单检查，不按 UID/GID/PID 做授权。访问
// 控制分层解决：socket 文件权限（0600）挡住其他用户，SO_PEERCRED 把
// 调用者身份落进审计，白名单约束可用命令集；K8s 场景还有 kubectl exec
// 的 RBAC 在外层。需要命令级授权时在自定义 Command 的 Execute 里查身份。
func (s *Session) handleRequest(req *Request) {
	startTime := time.Now()

	s.server.audit(AuditEventCommand, s.identity, req.Command, req.Args, 0, nil)

	cmd := s.server.registry.Get(req.Command)
	switch {
	case cmd == nil:
		s.rejectCommand(req, startTime, AuditEventCommandFailed, ErrCommandNotFound)
		return
	case !s.server.registry.IsAllowed(req.Command):
		s.rejectCommand(req, startTime, AuditEventCommandForbidden, ErrCommandForbidden)
		return
	case !s.server.acquireCommandSlot():
		s.rejectCommand(req, startTime, AuditEventCommandFailed, ErrTooManyCommands)
		return
	}
	defer s.server.releaseCommandSlot()

	// 设计决策: CommandTimeout 是协作式的（context.WithTimeout），命令
	// 不检查 ctx.Done 就只能等它自己返回，Go 没有强杀 goroutine 的手段。
	// http.Server、database/sql 同样如此。非协作命令的影响面由
	// MaxConcurrentCommands 槽位与 SessionReadTimeout 兜住。
	cmdCtx, cancel := context.WithTimeout(s.ctx, s.server.opts.CommandTimeout)
	defer cancel()

	// Observer 为 nil 时 Start 返回空跨度
	spanOpts := xmetrics.SpanOptions{
		Component: "xdbg",
		Operation: req.Command,
		Kind:      xmetrics.KindServer,
	}
	if s.identity != nil && s.identity.PeerIdentity != nil {
		spanOpts.Attrs = []xmetrics.Attr{xmetrics.CallerPID(s.identity.PID)}
	}
	spanCtx, span := xmetrics.Start(cmdCtx, s.server.opts.Observer, spanOpts)

	output, err := s.executeCommand(spanCtx, cmd, req.Args)
	duration := time.Since(startTime)

	if err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			err = ErrTimeout
		}
		span.End(xmetrics.Result{Err: err})
		s.server.audit(AuditEventCommandFailed, s.identity, req.Command, req.Args, duration, err)
		s.sendError(err)
		return
	}
	span.End(xmetrics.Result{})

	s.server.audit(AuditEventCommandSuccess, s.identity, req.Command, req.Args, duration, nil)

	resp := TruncateOutput(output, s.server.opts.MaxOutputSize)
	s.sendResponse(resp)
}

// executeCommand 在 panic 隔离边界内执行命令。
//
// 设计决策: 调试通道不能把故障放大成主进程崩溃。命令（尤其用户自定义
// 命令）的 panic 转成错误响应并进审计，不向上传播。
func (s *Session) executeCommand(ctx context.Context, cmd Command, args []string) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return cmd.Execute(ctx, args)
}

// sendError 回写错误响应。
func (s *Session) sendError(err error) {
	s.sendResponse(NewErrorResponse(err))
}

// sendResponse 编码并回写响应，编码失败时降级为固定的错误响应。
func (s *Session) sendResponse(resp *Response) {
	data, err := s.codec.EncodeResponse(resp)
	if err != nil {
		s.auditInternal("encode response failed", err)
		s.sendFallbackError()
		return
	}

	s.writeData(data)
}

// sendFallbackError 回写不含 output 的固定错误响应。
// 原响应编码失败（通常是输出过大）时仍要应答，客户端才不会挂在读上。
func (s *Session) sendFallbackError() {
	errResp := &Response{
		Success: false,
		Error:   "response encoding failed: output too large after JSON encoding",
	}

	data, err := s.codec.EncodeResponse(errResp)
	if err != nil {
		// 固定响应也编码失败，只能放弃应答
		s.auditInternal("encode error response also failed", err)
		return
	}

	s.writeData(data)
}

// writeData 把已编码的帧写入连接，带写超时保护。
// 写失败后置位 closed，后续写入全部丢弃。
func (s *Session) writeData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	// 写超时防止客户端只写不读拖死 goroutine
	if s.server.opts.SessionWriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.server.opts.SessionWriteTimeout)); err != nil {
			s.auditInternal("set write deadline failed", err)
			s.closed = true
			return
		}
	}

	if _, err := s.conn.Write(data); err != nil {
		s.auditInternal("write response failed", err)
		s.closed = true
		return
	}

	if s.server.opts.SessionWriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Time{}); err != nil {
			s.auditInternal("clear write deadline failed", err)
		}
	}
}

// Close 关闭会话并回收资源，可安全重复调用。
// 即使写失败已经置位 closed，资源回收仍会执行。
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connClosed {
		return nil
	}
	s.connClosed = true
	s.closed = true

	s.cancel()

	s.server.audit(AuditEventSessionEnd, s.identity, "", nil, 0, nil)

	return s.conn.Close()
}
