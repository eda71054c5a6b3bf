//go:build windows

package xdbg

import (
	"context"
	"errors"
)

// ErrSignalNotSupported 表示当前平台不支持信号触发。
var ErrSignalNotSupported = errors.New("xdbg: signal trigger is not supported on Windows")

// SignalTrigger Windows 平台的占位实现，不产生任何触发事件。
type SignalTrigger struct{}

// NewSignalTrigger 创建占位触发器。
func NewSignalTrigger() *SignalTrigger {
	return &SignalTrigger{}
}

// Watch 返回一个已关闭的通道，调用方不会收到任何事件。
func (t *SignalTrigger) Watch(_ context.Context) <-chan TriggerEvent {
	ch := make(chan TriggerEvent)
	close(ch)
	return ch
}

// Close 无需清理任何资源。
func (t *SignalTrigger) Close() error {
	return nil
}
