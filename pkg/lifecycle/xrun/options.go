package xrun

import (
	"log/slog"
	"os"
)

// Option 配置 Group。
type Option func(*groupOptions)

type groupOptions struct {
	logger          *slog.Logger
	name            string
	signals         []os.Signal
	noSignalHandler bool
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: slog.Default(),
		name:   "xrun",
	}
}

// WithLogger 设置生命周期日志的输出器，默认 slog.Default()。
// 传 nil 保持默认值。
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，用于在日志中区分多个 Group。
// 默认 "xrun"，空字符串保持默认值。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 设置 Run 系列函数监听的信号列表，
// 覆盖默认的 DefaultSignals()。
//
// 示例：
//
//	xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithSignals([]os.Signal{syscall.SIGINT, syscall.SIGTERM}),
//	}, myService)
func WithSignals(signals []os.Signal) Option {
	// 立即拷贝，调用方之后改原切片不影响配置
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用自动信号处理，
// Run 系列函数不再注册信号监听，由调用方自行管理。
//
// 示例：
//
//	xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithoutSignalHandler(),
//	}, myService)
func WithoutSignalHandler() Option {
	return func(o *groupOptions) {
		o.noSignalHandler = true
	}
}
