//go:build !windows

package xdbg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Server 调试服务器。
type Server struct {
	opts     *options
	registry *CommandRegistry

	state           atomic.Int32
	transport       Transport
	transportMu     sync.Mutex
	customTransport bool // 标记是否使用了用户自定义的 Transport
	trigger         Trigger

	ctx    context.Context
	cancel context.CancelFunc

	wg              sync.WaitGroup
	sessionCount    atomic.Int32
	commandSlots    chan struct{}
	shutdownTimer   *time.Timer
	shutdownTimerMu sync.Mutex

	// done 在关闭流程完成后关闭，Serve 以此感知退出时机
	done chan struct{}

	// pprofCmd 保存 pprof 命令引用，用于在 Stop 时清理资源
	pprofCmd *pprofCommand
}

// NewServer 创建调试服务器。
//
// 设计决策: 返回具体类型 *Server 而非接口。xdbg 通过构建标签（!windows/windows）
// 在编译期选择平台实现，不需要运行时多态。测试可通过 WithTransport 注入自定义传输层。
// 这与 xpool、xglock 等包的构造函数签名一致。
func NewServer(opts ...Option) (*Server, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	// 验证配置选项
	if err := validateOptions(options); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	s := &Server{
		opts:         options,
		registry:     NewCommandRegistry(),
		commandSlots: make(chan struct{}, options.MaxConcurrentCommands),
		done:         make(chan struct{}),
	}

	// 设置命令白名单
	if options.CommandWhitelist != nil {
		s.registry.SetWhitelist(options.CommandWhitelist)
	}

	// 初始化命令槽
	for i := 0; i < options.MaxConcurrentCommands; i++ {
		s.commandSlots <- struct{}{}
	}

	// 注册内置命令
	s.registerBuiltinCommands()

	// 注册锁组集成命令
	s.registerLockCommands()

	return s, nil
}

// Start 启动服务器。
// 服务器会在后台等待触发事件，收到触发后开始监听连接。
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(ServerStateCreated), int32(ServerStateStarted)) {
		return ErrAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	// 创建或使用自定义传输层
	if s.opts.Transport != nil {
		s.transport = s.opts.Transport
		s.customTransport = true
	} else {
		s.transport = NewUnixTransport(s.opts.SocketPath, os.FileMode(s.opts.SocketPerm))
	}

	// 创建触发器
	if !s.opts.BackgroundMode {
		s.trigger = NewSignalTrigger()
		s.wg.Add(1)
		go s.watchTrigger()
	}

	return nil
}

// Serve 启动服务器并立即开始监听，阻塞直到 Stop 或 Shutdown 被调用。
// 正常关闭时返回 ErrServerClosed（包装 net.ErrClosed），托管运行层以此识别正常退出。
// 信号触发的 Disable 只会暂停监听，Serve 继续阻塞等待下一次 Enable。
func (s *Server) Serve() error {
	if err := s.Start(context.Background()); err != nil {
		return err
	}
	if err := s.Enable(); err != nil {
		return errors.Join(err, s.Stop())
	}
	<-s.done
	return ErrServerClosed
}

// Stop 停止服务器。
// 等待清理完成的时限由 ShutdownTimeout 控制；需要自定义时限时使用 Shutdown。
func (s *Server) Stop() error {
	ctx := context.Background()
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	return s.shutdown(ctx)
}

// Shutdown 停止服务器，等待清理完成直到 ctx 到期。
// ctx 为 nil 时无限等待。与 Stop 的唯一区别是等待时限由调用方控制。
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.shutdown(ctx)
}

// shutdown 执行统一的关闭流程。
func (s *Server) shutdown(ctx context.Context) error {
	// 设计决策: 使用 CAS 循环确保并发关闭仅一个执行清理逻辑。
	// Load+Store 模式有竞态窗口（两个 goroutine 同时通过检查），
	// 可能导致 transport/auditLogger 的 double-close。
	for {
		state := ServerState(s.state.Load())
		if state == ServerStateStopped {
			return nil
		}
		if s.state.CompareAndSwap(int32(state), int32(ServerStateStopped)) {
			break
		}
	}

	// 取消上下文
	if s.cancel != nil {
		s.cancel()
	}

	// 停止自动关闭定时器
	s.stopShutdownTimer()

	// 清理 pprof 资源
	s.cleanupPprof()

	// 关闭传输层和触发器
	closeErr := s.closeTransportAndTrigger()

	// 等待所有 goroutine 完成
	waitErr := s.waitForGoroutines(ctx)

	// 记录停止
	s.audit(AuditEventServerStop, nil, "", nil, 0, nil)

	// 关闭审计日志
	s.closeAuditLogger()

	// 通知 Serve 返回
	close(s.done)

	return errors.Join(closeErr, waitErr)
}

// Enable 启用调试服务（开始监听）。
func (s *Server) Enable() error {
	return s.startListening()
}

// Disable 禁用调试服务（停止监听）。
func (s *Server) Disable() error {
	return s.stopListening()
}

// IsListening 返回是否正在监听。
func (s *Server) IsListening() bool {
	return ServerState(s.state.Load()) == ServerStateListening
}

// State 返回当前状态。
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// RegisterCommand 注册自定义命令。
func (s *Server) RegisterCommand(cmd Command) {
	s.registry.Register(cmd)
}
