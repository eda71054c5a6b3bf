//go:build !windows

package xdbg

import (
	"context"
	"testing"

	"go.uber.org/goleak"
)

// mustNewCommandFunc 创建 CommandFunc，失败时直接终止测试。
func mustNewCommandFunc(tb testing.TB, name, help string, fn func(ctx context.Context, args []string) (string, error)) *CommandFunc {
	tb.Helper()
	cmd, err := NewCommandFunc(name, help, fn)
	if err != nil {
		tb.Fatalf("NewCommandFunc(%q) error = %v", name, err)
	}
	return cmd
}

// TestMain 在所有测试结束后检查 goroutine 泄漏。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// 网络轮询 goroutine 由 runtime 管理，不算泄漏
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
