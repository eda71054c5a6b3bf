package xglock

import "time"

// Option 定义 Group 的可选配置。
type Option func(*options)

type options struct {
	name          string
	parker        Parker
	rec           Recorder
	slowThreshold time.Duration
	onSlowAcquire func(SlowAcquire)
}

func defaultOptions() options {
	return options{
		parker: defaultParker(),
	}
}

// WithName 设置组名。
// 组名用于注册表登记、慢等待告警与指标标签；空名组无法注册。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithParker 替换挂起原语实现。
// 默认使用进程内共享的等待表（挂起 goroutine）；传入 [OSParker]
// 可改用操作系统级挂起。p 为 nil 时保持默认。
func WithParker(p Parker) Option {
	return func(o *options) {
		if p != nil {
			o.parker = p
		}
	}
}

// WithRecorder 接入锁事件指标采集。
// r 为 nil 时不采集（默认）。xmetrics 提供基于 OpenTelemetry 的实现。
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.rec = r
	}
}

// WithSlowAcquire 设置慢等待告警：一次获取的等待时间达到 threshold
// 时回调 fn。threshold <= 0 或 fn 为 nil 时不启用。
// 回调在获取成功后的调用方 goroutine 上同步执行，应保持轻量。
func WithSlowAcquire(threshold time.Duration, fn func(SlowAcquire)) Option {
	return func(o *options) {
		if threshold <= 0 || fn == nil {
			return
		}
		o.slowThreshold = threshold
		o.onSlowAcquire = fn
	}
}
