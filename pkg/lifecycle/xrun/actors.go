package xrun

import (
	"context"
	"os"
	"syscall"
	"time"
)

// DefaultSignals 返回默认监听的系统信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
//
// SIGHUP 在终端断开（比如 SSH 断连）时也会触发；容器里通常无此问题，
// 需要排除时用 [WithSignals] 自定义列表。
//
// 每次调用返回新切片，调用方可安全修改。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// 测试信号通道放在非测试文件里，因为 watchSignals（生产代码）要从
// context 读它。这样测试不必向进程发真实信号（会被 CI 拦截或误伤进程），
// 生产路径只多一次 context.Value 查找。

type testSigChanKey struct{}

// testSigChan 取出测试注入的信号通道，生产环境返回 nil。
func testSigChan(ctx context.Context) <-chan os.Signal {
	c, ok := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	if !ok {
		return nil
	}
	return c
}

// withTestSigChan 在 context 中注入测试信号通道。
func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}

// ----------------------------------------------------------------------------
// 服务函数（推荐使用）
// ----------------------------------------------------------------------------

// Ticker 返回按 interval 周期执行 fn 的服务函数。
//
// interval 必须为正，否则服务函数返回 ErrInvalidInterval。
// immediate 为 true 时启动即执行一次。ctx 取消后返回 ctx.Err()。
//
// 示例：
//
//	g.Go(xrun.Ticker(time.Minute, true, func(ctx context.Context) error {
//	    return flushAudit(ctx)
//	}))
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}

		if immediate {
			// 已取消的 context 不触发首次执行，避免产生业务副作用
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Timer 返回延迟 delay 后执行一次 fn 的服务函数。
//
// delay 为负时服务函数返回 ErrInvalidDelay；为 0 表示立即执行。
// 触发前 ctx 被取消则返回 ctx.Err()。
//
// 示例：
//
//	g.Go(xrun.Timer(30*time.Minute, func(_ context.Context) error {
//	    return dbg.Disable()
//	}))
func Timer(delay time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		// delay == 0 是有效用例（立即触发）；Ticker 的 interval == 0
		// 会让 time.NewTicker panic，所以两边的边界值不同。
		if delay < 0 {
			return ErrInvalidDelay
		}
		if fn == nil {
			return ErrNilFunc
		}

		if delay == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx)
		}

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			return fn(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitForDone 返回阻塞到 context 取消的占位服务，用于保持 Group 存活。
//
// 示例：
//
//	g.Go(xrun.WaitForDone())
func WaitForDone() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
}
