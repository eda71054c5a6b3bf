package xdbg

import "context"

// TriggerEvent 触发事件类型。
type TriggerEvent int

const (
	// TriggerEventEnable 启用调试服务。
	TriggerEventEnable TriggerEvent = iota + 1

	// TriggerEventDisable 禁用调试服务。
	TriggerEventDisable

	// TriggerEventToggle 切换调试服务状态（开关模式）。
	TriggerEventToggle
)

// String 返回触发事件的字符串表示。
func (e TriggerEvent) String() string {
	switch e {
	case TriggerEventEnable:
		return "Enable"
	case TriggerEventDisable:
		return "Disable"
	case TriggerEventToggle:
		return "Toggle"
	default:
		return "Unknown"
	}
}

// Trigger 触发器接口。
// 触发器监听外部事件（默认实现监听 SIGUSR1 信号），通知调试服务启停。
type Trigger interface {
	// Watch 开始监听触发事件，返回事件通道。
	// ctx 取消后实现应关闭通道并停止监听。
	Watch(ctx context.Context) <-chan TriggerEvent

	// Close 关闭触发器，释放资源。
	Close() error
}
