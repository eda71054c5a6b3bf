package xrotate

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

// FuzzLumberjackWrite 模糊测试写入功能
//
// 测试目标：
//   - 任意字节序列写入不会导致 panic
//   - 写入成功时返回的字节数等于输入长度
func FuzzLumberjackWrite(f *testing.F) {
	f.Add([]byte(`{"command":"locks","ok":true}` + "\n"))
	f.Add([]byte(""))
	f.Add([]byte("审计记录\n"))
	f.Add([]byte("special chars: \x00\x01\x02\n"))
	f.Add(bytes.Repeat([]byte("x"), 1024))
	f.Add([]byte{0xff, 0xfe, 0x00, 0x01})

	filename := filepath.Join(f.TempDir(), "fuzz_audit.log")
	r, err := NewLumberjack(filename)
	if err != nil {
		f.Fatal(err)
	}
	defer r.Close()

	f.Fuzz(func(t *testing.T, data []byte) {
		n, err := r.Write(data)
		if err != nil {
			// 写入错误是可接受的（如磁盘满）
			return
		}
		if n != len(data) {
			t.Errorf("Write returned %d, want %d", n, len(data))
		}
	})
}

// FuzzLumberjackOptions 模糊测试配置选项
//
// 测试目标：
//   - 各种配置组合不会导致 panic
//   - 失败时错误匹配某个导出的哨兵错误
func FuzzLumberjackOptions(f *testing.F) {
	f.Add(100, 7, 30, true, false)
	f.Add(0, 0, 0, false, true)
	f.Add(-1, -1, -1, true, true)
	f.Add(1, 0, 0, false, false)
	f.Add(maxSizeMB, maxBackups, maxAgeDays, true, false)
	f.Add(maxSizeMB+1, maxBackups+1, maxAgeDays+1, false, false)

	tmpDir := f.TempDir()

	f.Fuzz(func(t *testing.T, maxSize, backups, ageDays int, compress, localTime bool) {
		filename := filepath.Join(tmpDir, "fuzz_options.log")

		r, err := NewLumberjack(filename,
			WithMaxSize(maxSize),
			WithMaxBackups(backups),
			WithMaxAge(ageDays),
			WithCompress(compress),
			WithLocalTime(localTime),
		)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidMaxSize),
				errors.Is(err, ErrInvalidMaxBackups),
				errors.Is(err, ErrInvalidMaxAge),
				errors.Is(err, ErrNoCleanupPolicy):
				return
			default:
				t.Errorf("unexpected error kind: %v", err)
				return
			}
		}
		if _, err := r.Write([]byte("entry\n")); err != nil {
			t.Errorf("write after successful New: %v", err)
		}
		r.Close()
	})
}
