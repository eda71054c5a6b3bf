package xrotate_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/omeyang/lockkit/pkg/observability/xrotate"
)

func ExampleNewLumberjack() {
	tmpDir, err := os.MkdirTemp("", "xrotate-example-*")
	if err != nil {
		fmt.Println("创建临时目录失败:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	filename := filepath.Join(tmpDir, "audit.log")

	r, err := xrotate.NewLumberjack(filename,
		xrotate.WithMaxSize(100),     // 100MB 触发轮转
		xrotate.WithMaxBackups(7),    // 保留 7 个备份
		xrotate.WithMaxAge(30),       // 保留 30 天
		xrotate.WithCompress(true),   // 压缩备份
		xrotate.WithLocalTime(false), // 使用 UTC 时间
	)
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}
	defer r.Close()

	_, _ = r.Write([]byte(`{"command":"locks","ok":true}` + "\n"))
	fmt.Println("写入成功")
	// Output: 写入成功
}

func ExampleRotator() {
	tmpDir, err := os.MkdirTemp("", "xrotate-example-*")
	if err != nil {
		fmt.Println("创建临时目录失败:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	r, err := xrotate.NewLumberjack(filepath.Join(tmpDir, "audit.log"))
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}
	defer r.Close()

	// Rotator 是 io.WriteCloser 的超集，额外支持手动轮转
	_, _ = r.Write([]byte("entry before rotate\n"))
	if err := r.Rotate(); err != nil {
		fmt.Println("轮转失败:", err)
		return
	}
	_, _ = r.Write([]byte("entry after rotate\n"))
	fmt.Println("轮转成功")
	// Output: 轮转成功
}
