//go:build windows

// 设计决策: xdbgctl 不支持 Windows 平台。
// 进程发现（/proc 扫描）、SIGUSR1 toggle 与 Unix Domain Socket
// 都是 Unix/Linux 特性，Windows 上没有对应实现。
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "xdbgctl: 不支持 Windows 平台（依赖 Unix Domain Socket 和 POSIX 信号）")
	os.Exit(1)
}
