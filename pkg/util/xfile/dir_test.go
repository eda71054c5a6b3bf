package xfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
	}{
		{
			name:     "创建单层目录",
			filename: filepath.Join(tmpDir, "newdir", "audit.log"),
		},
		{
			name:     "创建多层目录",
			filename: filepath.Join(tmpDir, "a", "b", "c", "d", "audit.log"),
		},
		{
			name:     "目录已存在",
			filename: filepath.Join(tmpDir, "audit.log"),
		},
		{
			name:     "当前目录文件",
			filename: "audit.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := EnsureDir(tt.filename); err != nil {
				t.Errorf("EnsureDir() 意外错误: %v", err)
				return
			}

			// 验证父目录确实被创建
			dir := filepath.Dir(tt.filename)
			if dir != "" && dir != "." {
				info, err := os.Stat(dir)
				if err != nil {
					t.Errorf("目录 %q 未被创建: %v", dir, err)
					return
				}
				if !info.IsDir() {
					t.Errorf("%q 不是目录", dir)
				}
			}
		})
	}
}

func TestEnsureDirErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		perm     os.FileMode
		wantErr  error
	}{
		{
			name:     "空文件名",
			filename: "",
			perm:     0750,
			wantErr:  ErrEmptyPath,
		},
		{
			name:     "空字节",
			filename: "a\x00/audit.log",
			perm:     0750,
			wantErr:  ErrNullByte,
		},
		{
			name:     "缺少所有者执行位",
			filename: "logs/audit.log",
			perm:     0644,
			wantErr:  ErrInvalidPerm,
		},
		{
			name:     "零权限",
			filename: "logs/audit.log",
			perm:     0,
			wantErr:  ErrInvalidPerm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureDirWithPerm(tt.filename, tt.perm)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EnsureDirWithPerm(%q, %04o) = %v, 期望 %v", tt.filename, tt.perm, err, tt.wantErr)
			}
		})
	}
}

func TestEnsureDirWithPerm(t *testing.T) {
	tmpDir := t.TempDir()

	for _, perm := range []os.FileMode{0700, 0750, 0755} {
		filename := filepath.Join(tmpDir, "sub", "audit.log")
		if err := EnsureDirWithPerm(filename, perm); err != nil {
			t.Fatalf("EnsureDirWithPerm(%04o) 错误: %v", perm, err)
		}
		// 已存在的目录不报错，也不修改权限
		if err := EnsureDirWithPerm(filename, perm); err != nil {
			t.Fatalf("第二次调用错误: %v", err)
		}
	}

	info, err := os.Stat(filepath.Join(tmpDir, "sub"))
	if err != nil {
		t.Fatalf("无法获取目录信息: %v", err)
	}
	// 实际权限可能受 umask 影响，只验证所有者 rwx
	if perm := info.Mode().Perm(); perm&0700 != 0700 {
		t.Errorf("目录权限 %o 不符合预期，所有者应有 rwx 权限", perm)
	}
}

func TestDefaultDirPerm(t *testing.T) {
	if DefaultDirPerm != 0750 {
		t.Errorf("DefaultDirPerm = %o, 期望 0750", DefaultDirPerm)
	}
}
