package xlog_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/omeyang/lockkit/pkg/observability/xlog"
)

// FuzzParseLevel 模糊测试级别解析不 panic，且成功时 String 可往返
func FuzzParseLevel(f *testing.F) {
	f.Add("debug")
	f.Add("INFO")
	f.Add(" warn ")
	f.Add("warning")
	f.Add("error")
	f.Add("")
	f.Add("级别")
	f.Add("INFO+2")

	f.Fuzz(func(t *testing.T, s string) {
		level, err := xlog.ParseLevel(s)
		if err != nil {
			return
		}
		back, err := xlog.ParseLevel(level.String())
		if err != nil {
			t.Fatalf("round trip failed for %q: %v", s, err)
		}
		if back != level {
			t.Fatalf("round trip mismatch: %v != %v", back, level)
		}
	})
}

// FuzzAttrBuilders 模糊测试属性构造函数不 panic 且可解析
func FuzzAttrBuilders(f *testing.F) {
	f.Add("cache", "register", uint64(42), int64(1))

	f.Fuzz(func(t *testing.T, name, op string, id uint64, count int64) {
		_ = xlog.Group(name)
		_ = xlog.Component(name)
		_ = xlog.Operation(op)
		_ = xlog.Goroutine(id)
		_ = xlog.Session(id)
		_ = xlog.Depth(id)
		_ = xlog.Count(count)
		_ = xlog.Command(op)
		_ = xlog.Wait(time.Duration(count))
		_ = xlog.Duration(time.Duration(count))

		resolve(t, xlog.Lazy("any", func() any { return name }))
		resolve(t, xlog.LazyString("str", func() string { return op }))
		resolve(t, xlog.LazyInt("int", func() int64 { return count }))
		resolve(t, xlog.LazyDuration("dur", func() time.Duration { return time.Duration(count) }))
	})
}

func resolve(t *testing.T, attr slog.Attr) {
	t.Helper()
	_ = attr.Value.Resolve()
}
