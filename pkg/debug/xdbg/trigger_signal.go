//go:build !windows

package xdbg

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalTrigger 信号触发器。
// 监听 SIGUSR1，每次收到信号产生一个 Toggle 事件。
type SignalTrigger struct {
	sigCh     chan os.Signal
	closeOnce sync.Once
}

// NewSignalTrigger 创建信号触发器。
func NewSignalTrigger() *SignalTrigger {
	return &SignalTrigger{
		// 缓冲 1：signal.Notify 对满通道的投递是丢弃而非阻塞
		sigCh: make(chan os.Signal, 1),
	}
}

// Watch 开始监听信号。
func (t *SignalTrigger) Watch(ctx context.Context) <-chan TriggerEvent {
	eventCh := make(chan TriggerEvent, 1)

	signal.Notify(t.sigCh, syscall.SIGUSR1)

	go func() {
		defer close(eventCh)
		defer signal.Stop(t.sigCh)

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-t.sigCh:
				if !ok {
					return
				}
				if sig != syscall.SIGUSR1 {
					continue
				}
				// 非阻塞投递：事件尚未被消费时，后续信号合并为一次切换
				select {
				case eventCh <- TriggerEventToggle:
				default:
				}
			}
		}
	}()

	return eventCh
}

// Close 关闭触发器。幂等。
func (t *SignalTrigger) Close() error {
	t.closeOnce.Do(func() {
		signal.Stop(t.sigCh)
		close(t.sigCh)
	})
	return nil
}
