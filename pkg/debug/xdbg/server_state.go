//go:build !windows

package xdbg

// ServerState 服务器状态，所有转换都是 CAS 原子操作。
//
// Created 经 Start 进入 Started；Started 与 Listening 之间由
// Enable/Disable（或信号触发）往返切换；任意状态经 Stop 进入
// Stopped。Serve 等价于 Start 加 Enable，Shutdown 与 Stop 共用
// 同一条转换路径。
//
// Stopped 是终态，不会再转换到其他状态。
type ServerState int32

const (
	// ServerStateCreated 已创建，未启动。
	ServerStateCreated ServerState = iota

	// ServerStateStarted 已启动，等待触发。
	ServerStateStarted

	// ServerStateListening 正在监听连接。
	ServerStateListening

	// ServerStateStopped 已停止。
	ServerStateStopped
)

// String 返回状态名。
func (s ServerState) String() string {
	switch s {
	case ServerStateCreated:
		return "Created"
	case ServerStateStarted:
		return "Started"
	case ServerStateListening:
		return "Listening"
	case ServerStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
