package xconf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用配置结构，对应 lockkit 进程的典型配置文件。
type appConfig struct {
	Log   logSection   `koanf:"log"`
	Debug debugSection `koanf:"debug"`
	Locks locksSection `koanf:"locks"`
}

type logSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

type debugSection struct {
	Socket         string        `koanf:"socket"`
	MaxSessions    int           `koanf:"max_sessions"`
	CommandTimeout time.Duration `koanf:"command_timeout"`
}

type locksSection struct {
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

const sampleYAML = `
log:
  level: info
  format: json
  file: /var/log/lockkit.log
debug:
  socket: /run/lockkit/debug.sock
  max_sessions: 8
  command_timeout: 3s
locks:
  slow_threshold: 150ms
`

const sampleJSON = `{
  "log": {"level": "info", "format": "json", "file": "/var/log/lockkit.log"},
  "debug": {"socket": "/run/lockkit/debug.sock", "max_sessions": 8, "command_timeout": "3s"},
  "locks": {"slow_threshold": "150ms"}
}`

// writeConfig 在临时目录下写出一个配置文件并返回路径。
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNew(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", sampleYAML)

		cfg, err := New(path)
		require.NoError(t, err)

		assert.Equal(t, path, cfg.Path())
		assert.Equal(t, FormatYAML, cfg.Format())
		assert.Equal(t, "info", cfg.Client().String("log.level"))
		assert.Equal(t, "/run/lockkit/debug.sock", cfg.Client().String("debug.socket"))
		assert.Equal(t, 8, cfg.Client().Int("debug.max_sessions"))
		assert.Equal(t, 3*time.Second, cfg.Client().Duration("debug.command_timeout"))
	})

	t.Run("yml extension", func(t *testing.T) {
		path := writeConfig(t, "config.yml", sampleYAML)

		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, cfg.Format())
		assert.Equal(t, "json", cfg.Client().String("log.format"))
	})

	t.Run("json file", func(t *testing.T) {
		path := writeConfig(t, "config.json", sampleJSON)

		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, cfg.Format())
		assert.Equal(t, 8, cfg.Client().Int("debug.max_sessions"))
	})

	t.Run("empty path", func(t *testing.T) {
		cfg, err := New("")
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := New("/nonexistent/path/config.yaml")
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrLoadFailed)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := writeConfig(t, "config.toml", `key = "value"`)
		cfg, err := New(path)
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "broken: yaml: here: ::::")
		cfg, err := New(path)
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrParseFailed)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfig(t, "config.json", "{not json}")
		cfg, err := New(path)
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrParseFailed)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "log:\n  level: warn\n")

		cfg, err := New(path, WithDelim("_"), WithTag("json"))
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Client().String("log_level"))
	})
}

func TestNewFromBytes(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		cfg, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
		require.NoError(t, err)

		assert.Empty(t, cfg.Path())
		assert.Equal(t, FormatYAML, cfg.Format())
		assert.Equal(t, 150*time.Millisecond, cfg.Client().Duration("locks.slow_threshold"))
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := NewFromBytes([]byte(sampleJSON), FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, cfg.Format())
		assert.Equal(t, "info", cfg.Client().String("log.level"))
	})

	t.Run("unknown format", func(t *testing.T) {
		cfg, err := NewFromBytes([]byte("data"), Format("toml"))
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty input", func(t *testing.T) {
		for _, data := range [][]byte{nil, {}} {
			cfg, err := NewFromBytes(data, FormatYAML)
			require.NoError(t, err)
			assert.Empty(t, cfg.Client().String("any.key"))
		}
	})

	t.Run("empty input matches empty file", func(t *testing.T) {
		// New 读空文件和 NewFromBytes 收空数据都给出可用的空配置
		fromFile, err := New(writeConfig(t, "empty.yaml", ""))
		require.NoError(t, err)
		fromBytes, err := NewFromBytes(nil, FormatYAML)
		require.NoError(t, err)

		var a, b logSection
		require.NoError(t, fromFile.Unmarshal("log", &a))
		require.NoError(t, fromBytes.Unmarshal("log", &b))
		assert.Equal(t, a, b)
		assert.Empty(t, a.Level)
	})
}

func TestUnmarshal(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	t.Run("whole tree", func(t *testing.T) {
		var app appConfig
		require.NoError(t, cfg.Unmarshal("", &app))

		assert.Equal(t, "info", app.Log.Level)
		assert.Equal(t, "/run/lockkit/debug.sock", app.Debug.Socket)
		assert.Equal(t, 8, app.Debug.MaxSessions)
		assert.Equal(t, 3*time.Second, app.Debug.CommandTimeout)
		assert.Equal(t, 150*time.Millisecond, app.Locks.SlowThreshold)
	})

	t.Run("subtree", func(t *testing.T) {
		var dbg debugSection
		require.NoError(t, cfg.Unmarshal("debug", &dbg))
		assert.Equal(t, "/run/lockkit/debug.sock", dbg.Socket)
		assert.Equal(t, 8, dbg.MaxSessions)
	})

	t.Run("missing subtree gives zero values", func(t *testing.T) {
		var dbg debugSection
		require.NoError(t, cfg.Unmarshal("nonexistent", &dbg))
		assert.Empty(t, dbg.Socket)
	})
}

func TestMustUnmarshal(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		var app appConfig
		assert.NotPanics(t, func() {
			MustUnmarshal(cfg, "", &app)
		})
		assert.Equal(t, "info", app.Log.Level)
	})

	t.Run("panics on failure", func(t *testing.T) {
		var app appConfig
		assert.Panics(t, func() {
			MustUnmarshal(cfg, "", app) // 非指针，反序列化必然失败
		})
	})

	t.Run("panics on nil config", func(t *testing.T) {
		var app appConfig
		assert.Panics(t, func() {
			MustUnmarshal(nil, "", &app)
		})
	})
}

func TestDump(t *testing.T) {
	t.Run("snapshot content", func(t *testing.T) {
		cfg, err := New(writeConfig(t, "config.yaml", sampleYAML))
		require.NoError(t, err)

		raw := cfg.Dump()
		logPart, ok := raw["log"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "info", logPart["level"])
		assert.Equal(t, "json", logPart["format"])
	})

	t.Run("mutating snapshot leaves config intact", func(t *testing.T) {
		cfg, err := New(writeConfig(t, "config.yaml", sampleYAML))
		require.NoError(t, err)

		raw := cfg.Dump()
		logPart, ok := raw["log"].(map[string]any)
		require.True(t, ok)
		logPart["level"] = "mutated"

		assert.Equal(t, "info", cfg.Client().String("log.level"))
		fresh, ok := cfg.Dump()["log"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "info", fresh["level"])
	})

	t.Run("reflects reload", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", sampleYAML)
		cfg, err := New(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0600))
		require.NoError(t, cfg.Reload())

		logPart, ok := cfg.Dump()["log"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "debug", logPart["level"])
	})

	t.Run("empty config", func(t *testing.T) {
		cfg, err := NewFromBytes(nil, FormatYAML)
		require.NoError(t, err)
		assert.Empty(t, cfg.Dump())
	})
}

func TestReload(t *testing.T) {
	t.Run("picks up changes", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "log:\n  level: info\nlocks:\n  slow_threshold: 150ms\n")
		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Client().String("log.level"))

		updated := "log:\n  level: debug\nlocks:\n  slow_threshold: 50ms\n"
		require.NoError(t, os.WriteFile(path, []byte(updated), 0600))
		require.NoError(t, cfg.Reload())

		assert.Equal(t, "debug", cfg.Client().String("log.level"))
		assert.Equal(t, 50*time.Millisecond, cfg.Client().Duration("locks.slow_threshold"))
	})

	t.Run("bytes-backed config rejected", func(t *testing.T) {
		cfg, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.Reload(), ErrNotFromFile)
	})

	t.Run("deleted file", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", sampleYAML)
		cfg, err := New(path)
		require.NoError(t, err)

		require.NoError(t, os.Remove(path))
		assert.ErrorIs(t, cfg.Reload(), ErrLoadFailed)
	})

	t.Run("keeps old config on parse failure", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", sampleYAML)
		cfg, err := New(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("broken: yaml: here: ::::"), 0600))
		assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
		assert.Equal(t, "info", cfg.Client().String("log.level"), "old values must survive a failed reload")
	})

	t.Run("concurrent with readers", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", sampleYAML)
		cfg, err := New(path)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				for range 100 {
					_ = cfg.Client().String("log.level")
				}
			}()
			go func() {
				defer wg.Done()
				for range 10 {
					_ = cfg.Reload() //nolint:errcheck // 只验证无竞争
				}
			}()
		}
		wg.Wait()
	})
}

func TestDetectFormat(t *testing.T) {
	valid := map[string]Format{
		"/etc/lockkit/config.yaml": FormatYAML,
		"/etc/lockkit/config.yml":  FormatYAML,
		"/etc/lockkit/CONFIG.YAML": FormatYAML,
		"/etc/lockkit/CONFIG.YML":  FormatYAML,
		"/etc/lockkit/config.json": FormatJSON,
		"/etc/lockkit/CONFIG.JSON": FormatJSON,
	}
	for path, want := range valid {
		format, err := detectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, format, path)
	}

	for _, path := range []string{"/a/config.toml", "/a/config.xml", "/a/config"} {
		_, err := detectFormat(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, path)
	}
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat(FormatYAML))
	assert.True(t, isValidFormat(FormatJSON))
	assert.False(t, isValidFormat(Format("toml")))
	assert.False(t, isValidFormat(Format("")))
}

func TestConfigShapes(t *testing.T) {
	t.Run("deep nesting", func(t *testing.T) {
		content := "a:\n  b:\n    c:\n      value: deep-value\n"
		cfg, err := New(writeConfig(t, "config.yaml", content))
		require.NoError(t, err)
		assert.Equal(t, "deep-value", cfg.Client().String("a.b.c.value"))
	})

	t.Run("group list", func(t *testing.T) {
		content := `
groups:
  - name: sessions
    slow_threshold: 100ms
  - name: orders
    slow_threshold: 250ms
`
		cfg, err := New(writeConfig(t, "config.yaml", content))
		require.NoError(t, err)

		type groupEntry struct {
			Name          string        `koanf:"name"`
			SlowThreshold time.Duration `koanf:"slow_threshold"`
		}
		var list struct {
			Groups []groupEntry `koanf:"groups"`
		}
		require.NoError(t, cfg.Unmarshal("", &list))

		require.Len(t, list.Groups, 2)
		assert.Equal(t, "sessions", list.Groups[0].Name)
		assert.Equal(t, 100*time.Millisecond, list.Groups[0].SlowThreshold)
		assert.Equal(t, "orders", list.Groups[1].Name)
		assert.Equal(t, 250*time.Millisecond, list.Groups[1].SlowThreshold)
	})

	t.Run("command whitelist map", func(t *testing.T) {
		content := "commands:\n  locks: true\n  stack: true\n  freemem: false\n"
		cfg, err := New(writeConfig(t, "config.yaml", content))
		require.NoError(t, err)

		var allowed struct {
			Commands map[string]bool `koanf:"commands"`
		}
		require.NoError(t, cfg.Unmarshal("", &allowed))

		require.Len(t, allowed.Commands, 3)
		assert.True(t, allowed.Commands["locks"])
		assert.False(t, allowed.Commands["freemem"])
	})
}
