//go:build linux

package xglock

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// futex 操作码与标志，x/sys/unix 未导出，取内核 ABI 固定值
// （见 <linux/futex.h>）。
const (
	futexWait        = 0
	futexWake        = 1
	futexPrivateFlag = 128
)

// futexOffset 定位 64 位锁字中低 32 位所在的半字，futex 只作用于
// 32 位字。小端为 0，大端为 4。
var futexOffset uintptr

func init() {
	var probe uint32 = 1
	if *(*byte)(unsafe.Pointer(&probe)) == 0 {
		futexOffset = 4
	}
}

// futexParker 以 FUTEX_WAIT/FUTEX_WAKE 直接挂起 OS 线程。
//
// 与默认等待表不同，FUTEX_WAIT 会把整条 OS 线程挂进内核。runtime
// 会为其余 goroutine 交接 P，调度不受阻，但每个等待者仍独占一条
// 线程。仅在等待者数量可控、且希望绕过 channel 唤醒路径时选用。
//
// futex 只比较锁字的低 32 位。goroutine id 远小于 2^32 时低位足以
// 判定"已变化"；极端的高位差异只会造成一次良性的虚假挂起，随后的
// 唤醒照常把等待者拉起来，协议不受影响。
type futexParker struct{}

// OSParker 返回基于操作系统挂起原语的 Parker，Linux 上为 futex。
func OSParker() Parker {
	return futexParker{}
}

func (futexParker) Park(word *atomic.Uint64, old uint64) {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(futexWord(word))),
		uintptr(futexWait|futexPrivateFlag),
		uintptr(uint32(old)),
		0, 0, 0)
	switch errno {
	case 0:
		return
	case unix.EAGAIN:
		// 锁字已不是 old：良性，回去重新竞争。
		return
	case unix.EINTR:
		// 被信号打断（runtime 的抢占信号 SIGURG 很常见），
		// 按虚假唤醒处理。
		return
	default:
		panic("xglock: FUTEX_WAIT failed: " + errno.Error())
	}
}

func (futexParker) Wake(word *atomic.Uint64) {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(futexWord(word))),
		uintptr(futexWake|futexPrivateFlag),
		1, 0, 0, 0)
	if errno != 0 {
		panic("xglock: FUTEX_WAKE failed: " + errno.Error())
	}
}

// futexWord 返回锁字中承载低 32 位的半字地址。
func futexWord(word *atomic.Uint64) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(word)) + futexOffset))
}

// 编译期接口检查。
var _ Parker = futexParker{}
