package xmetrics

import "time"

// String 创建字符串属性。
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Bool 创建布尔属性。
func Bool(key string, value bool) Attr {
	return Attr{Key: key, Value: value}
}

// Int 创建整数属性。
func Int(key string, value int) Attr {
	return Attr{Key: key, Value: value}
}

// Int64 创建 int64 属性。
func Int64(key string, value int64) Attr {
	return Attr{Key: key, Value: value}
}

// Uint64 创建 uint64 属性。
func Uint64(key string, value uint64) Attr {
	return Attr{Key: key, Value: value}
}

// Float64 创建 float64 属性。
func Float64(key string, value float64) Attr {
	return Attr{Key: key, Value: value}
}

// Duration 创建时间间隔属性。
// 建议显式使用带单位的 key，例如 "duration_ms"。
func Duration(key string, value time.Duration) Attr {
	return Attr{Key: key, Value: value}
}

// Any 创建任意类型属性。
func Any(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// 以下为本仓库领域的便捷构造器，统一属性 key，避免各调用方自拼字符串。

// Group 创建锁组名属性。
func Group(name string) Attr {
	return Attr{Key: "lock_group", Value: name}
}

// Goroutine 创建 goroutine id 属性。
func Goroutine(id uint64) Attr {
	return Attr{Key: "goroutine_id", Value: id}
}

// CallerPID 创建调用方进程 id 属性，调试服务器的命令跨度使用。
func CallerPID(pid int32) Attr {
	return Attr{Key: "caller_pid", Value: int64(pid)}
}
