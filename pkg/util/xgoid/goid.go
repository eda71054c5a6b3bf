package xgoid

import (
	"bytes"

	"github.com/petermattis/goid"
)

// stackPrefix 是 runtime.Stack 首行的固定前缀。
var stackPrefix = []byte("goroutine ")

// ID 返回当前 goroutine 的 id。
//
// 返回值恒为正数：runtime 从 1 开始分配 goid，0 永远不会出现。
func ID() uint64 {
	// goid.Get 返回 runtime 内部的 goid 字段，恒为正。
	return uint64(goid.Get())
}

// FromStack 从 runtime.Stack 的输出中解析首个 goroutine 的 id。
//
// 输入形如 "goroutine 18 [running]:\n..."。解析失败返回 (0, false)。
// 该路径仅用于诊断与测试交叉校验，热路径请使用 [ID]。
func FromStack(buf []byte) (uint64, bool) {
	if !bytes.HasPrefix(buf, stackPrefix) {
		return 0, false
	}
	rest := buf[len(stackPrefix):]

	var id uint64
	var seen bool
	for _, c := range rest {
		if c < '0' || c > '9' {
			break
		}
		d := uint64(c - '0')
		// 防御溢出：goid 实际远小于该上限
		if id > (^uint64(0)-d)/10 {
			return 0, false
		}
		id = id*10 + d
		seen = true
	}
	if !seen || id == 0 {
		return 0, false
	}
	return id, true
}
