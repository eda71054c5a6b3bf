package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key 常量
//
// 定义锁诊断与调试服务器日志中常用的标准字段名，保持跨包一致。
const (
	// KeyError 错误字段的标准 key
	KeyError = "error"

	// KeyStack 堆栈字段的标准 key
	KeyStack = "stack"

	// KeyDuration 耗时字段的标准 key
	KeyDuration = "duration"

	// KeyCount 计数字段的标准 key
	KeyCount = "count"

	// KeyComponent 组件名称字段的标准 key
	KeyComponent = "component"

	// KeyOperation 操作名称字段的标准 key
	KeyOperation = "operation"

	// KeyGroup 锁组名称字段的标准 key
	KeyGroup = "group"

	// KeyGoroutine goroutine id 字段的标准 key
	KeyGoroutine = "goroutine"

	// KeyWait 等待耗时字段的标准 key（慢获取告警）
	KeyWait = "wait"

	// KeyDepth 重入深度字段的标准 key
	KeyDepth = "depth"

	// KeyCommand 调试命令字段的标准 key
	KeyCommand = "command"

	// KeySession 调试会话字段的标准 key
	KeySession = "session"
)

// Err 创建错误属性
//
// 这是记录错误的标准方式，使用统一的 key "error"。
// 如果 err 为 nil，返回空属性（会被忽略）。
//
// 示例：
//
//	if err != nil {
//	    logger.Error(ctx, "register failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{} // 空属性会被 slog 忽略
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性
//
// 输出人类可读格式（如 "5s"、"1m30s"）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性
//
// 用于标识日志来源组件。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
//
// 用于标识当前执行的操作。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Group 创建锁组名称属性
//
// 示例：
//
//	logger.Warn(ctx, "slow acquire",
//	    xlog.Group("sessions"), xlog.Wait(wait))
func Group(name string) slog.Attr {
	return slog.String(KeyGroup, name)
}

// Goroutine 创建 goroutine id 属性
func Goroutine(id uint64) slog.Attr {
	return slog.Uint64(KeyGoroutine, id)
}

// Wait 创建等待耗时属性（慢获取告警）
func Wait(d time.Duration) slog.Attr {
	return slog.String(KeyWait, d.String())
}

// Depth 创建重入深度属性
func Depth(n uint64) slog.Attr {
	return slog.Uint64(KeyDepth, n)
}

// Command 创建调试命令属性
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Session 创建调试会话属性
func Session(id uint64) slog.Attr {
	return slog.Uint64(KeySession, id)
}
