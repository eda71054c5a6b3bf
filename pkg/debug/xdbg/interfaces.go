package xdbg

import (
	"github.com/omeyang/lockkit/pkg/lock/xglock"
)

// Leveler 日志级别控制器接口。
// 级别以字符串传递，便于从命令行参数直接转发；
// 基于 xlog 的实现可用 xlog.ParseLevel 完成字符串到级别的转换。
type Leveler interface {
	// Level 返回当前日志级别。
	Level() string

	// SetLevel 设置日志级别。
	// 支持的级别: debug, info, warn, error
	SetLevel(level string) error
}

// LockRegistry 锁组注册表接口。
// *xglock.Registry 实现此接口；locks 和 lock 命令通过它读取锁组快照。
type LockRegistry interface {
	// Names 返回全部已登记的锁组名，按字典序排序。
	Names() []string

	// Info 返回指定锁组的诊断快照。
	Info(name string) (xglock.GroupInfo, bool)
}

// ConfigProvider 配置提供者接口。
// 此接口与 xconf 兼容。
//
// 安全警告: Dump 返回的配置会通过 config 命令输出。
// 实现方有责任在 Dump 中对敏感字段（密码、Token、DSN 等）进行脱敏处理，
// 框架层不会自动过滤。如果配置中包含敏感信息，建议：
//   - 在 Dump 实现中过滤或掩码敏感字段
//   - 或使用 WithCommandWhitelist 禁用 config 命令
type ConfigProvider interface {
	// Dump 导出当前配置。
	// 实现方应确保返回值不包含敏感信息（密码、密钥等）。
	Dump() map[string]any
}
