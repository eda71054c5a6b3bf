package xfile

import (
	"path/filepath"
	"testing"
)

func BenchmarkSanitizePath(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_, _ = SanitizePath("/var/log/lockkit/audit.log")
	}
}

func BenchmarkSanitizePathWithDots(b *testing.B) {
	pathWithDots := "/var/./log/./lockkit/./audit.log"
	b.ReportAllocs()
	for b.Loop() {
		_, _ = SanitizePath(pathWithDots)
	}
}

func BenchmarkSanitizePathTraversal(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_, _ = SanitizePath("../../etc/passwd")
	}
}

// BenchmarkEnsureDir 测量目录已存在时的快路径
func BenchmarkEnsureDir(b *testing.B) {
	tmpDir := b.TempDir()
	filename := filepath.Join(tmpDir, "audit.log")
	if err := EnsureDir(filename); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_ = EnsureDir(filename)
	}
}
