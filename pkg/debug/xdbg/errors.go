package xdbg

import (
	"errors"
	"fmt"
	"net"
)

// 预定义错误。
var (
	// ErrNotRunning 表示调试服务未运行。
	ErrNotRunning = errors.New("xdbg: debug server is not running")

	// ErrAlreadyRunning 表示调试服务已在运行。
	ErrAlreadyRunning = errors.New("xdbg: debug server is already running")

	// ErrServerClosed 表示服务器已通过 Shutdown/Stop 关闭。
	// Serve 在关闭后返回此错误；它包装 net.ErrClosed，
	// 与关闭的监听器从 Accept 返回的错误一致，便于 xrun.Server 识别正常关闭。
	ErrServerClosed = fmt.Errorf("xdbg: server closed: %w", net.ErrClosed)

	// ErrCommandNotFound 表示命令未找到。
	ErrCommandNotFound = errors.New("xdbg: command not found")

	// ErrCommandForbidden 表示命令被禁止执行（不在白名单中）。
	ErrCommandForbidden = errors.New("xdbg: command is forbidden")

	// ErrNilExecute 表示命令执行函数为 nil。
	ErrNilExecute = errors.New("xdbg: nil command execute function")

	// ErrTimeout 表示命令执行超时。
	ErrTimeout = errors.New("xdbg: command execution timeout")

	// ErrTooManySessions 表示已达到最大会话数限制。
	ErrTooManySessions = errors.New("xdbg: too many concurrent sessions")

	// ErrTooManyCommands 表示已达到最大并发命令数限制。
	ErrTooManyCommands = errors.New("xdbg: too many concurrent commands")

	// ErrInvalidMessage 表示消息格式无效。
	ErrInvalidMessage = errors.New("xdbg: invalid message format")

	// ErrMessageTooLarge 表示消息过大。
	ErrMessageTooLarge = errors.New("xdbg: message too large")

	// ErrConnectionClosed 表示连接已关闭。
	ErrConnectionClosed = errors.New("xdbg: connection closed")

	// ErrOutputTruncated 表示输出被截断。
	ErrOutputTruncated = errors.New("xdbg: output truncated")

	// ErrInvalidState 表示服务器状态无效，无法执行此操作。
	ErrInvalidState = errors.New("xdbg: invalid server state for this operation")
)
