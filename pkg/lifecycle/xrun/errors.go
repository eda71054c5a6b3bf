package xrun

import (
	"errors"
	"fmt"
	"os"
)

// ErrSignal 表示进程因系统信号退出，用 errors.Is(err, ErrSignal) 判定。
var ErrSignal = errors.New("received signal")

// ErrInvalidInterval 表示 Ticker 的间隔不是正数。
var ErrInvalidInterval = errors.New("xrun: interval must be positive")

// ErrInvalidDelay 表示 Timer 的延迟为负数。
var ErrInvalidDelay = errors.New("xrun: delay must not be negative")

// ErrNilFunc 表示传入的服务函数为 nil。
var ErrNilFunc = errors.New("xrun: nil service func")

// ErrNilService 表示传入的 Service 为 nil。
var ErrNilService = errors.New("xrun: nil service")

// ErrNilServer 表示传给 Server 辅助函数的服务器为 nil。
var ErrNilServer = errors.New("xrun: nil server")

// SignalError 携带触发退出的具体信号。
//
// Run 系列函数收到信号时返回此类型：
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    fmt.Printf("received signal: %v\n", sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

// Error 实现 error 接口。
func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Is 让 errors.Is(err, ErrSignal) 成立。
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}

// Unwrap 返回 ErrSignal。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
