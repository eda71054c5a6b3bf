//go:build !linux

package xglock

// OSParker 返回基于操作系统挂起原语的 Parker。
// 未提供专用实现的平台退化为进程内共享的等待表，协议行为与
// Linux 的 futex 实现一致。
func OSParker() Parker {
	return sharedParker
}
