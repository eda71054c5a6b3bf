//go:build !windows

package xdbg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/lockkit/pkg/util/xjson"
)

// 注册锁组集成命令。
func (s *Server) registerLockCommands() {
	// 锁组命令
	if s.opts.LockRegistry != nil {
		s.registry.Register(newLocksCommand(s))
		s.registry.Register(newLockCommand(s))
	}

	// 配置命令
	if s.opts.ConfigProvider != nil {
		s.registry.Register(newConfigCommand(s))
	}
}

// groupStateString 返回锁组状态的显示名。
func groupStateString(locked bool) string {
	if locked {
		return "held"
	}
	return "idle"
}

// locksCommand locks 命令。
type locksCommand struct {
	server *Server
}

func newLocksCommand(s *Server) *locksCommand {
	return &locksCommand{server: s}
}

func (c *locksCommand) Name() string {
	return "locks"
}

func (c *locksCommand) Help() string {
	return "列出所有锁组及其状态"
}

func (c *locksCommand) Execute(_ context.Context, _ []string) (string, error) {
	registry := c.server.opts.LockRegistry
	if registry == nil {
		return "", fmt.Errorf("锁组注册表未配置")
	}

	names := registry.Names()
	if len(names) == 0 {
		return "没有注册的锁组", nil
	}

	var sb strings.Builder
	sb.WriteString("锁组列表:\n")

	for _, name := range names {
		info, ok := registry.Info(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %-20s [%s] owner=%d depth=%d acquires=%d contended=%d\n",
			info.Name, groupStateString(info.Locked), info.Owner, info.Depth,
			info.Stats.Acquires, info.Stats.Contended)
	}

	return sb.String(), nil
}

// lockCommand lock 命令。
type lockCommand struct {
	server *Server
}

func newLockCommand(s *Server) *lockCommand {
	return &lockCommand{server: s}
}

func (c *lockCommand) Name() string {
	return "lock"
}

func (c *lockCommand) Help() string {
	return "查看锁组详情 (lock <name>)"
}

func (c *lockCommand) Execute(_ context.Context, args []string) (string, error) {
	registry := c.server.opts.LockRegistry
	if registry == nil {
		return "", fmt.Errorf("锁组注册表未配置")
	}

	if len(args) == 0 {
		return "", fmt.Errorf("用法: lock <name>")
	}

	return c.showGroup(registry, args[0])
}

func (c *lockCommand) showGroup(registry LockRegistry, name string) (string, error) {
	info, ok := registry.Info(name)
	if !ok {
		return "", fmt.Errorf("锁组不存在: %s", name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "锁组: %s\n", info.Name)
	fmt.Fprintf(&sb, "  状态:     %s\n", groupStateString(info.Locked))
	fmt.Fprintf(&sb, "  持有者:   %d\n", info.Owner)
	fmt.Fprintf(&sb, "  嵌套深度: %d\n", info.Depth)
	fmt.Fprintf(&sb, "  获取总数: %d\n", info.Stats.Acquires)
	fmt.Fprintf(&sb, "  重入次数: %d\n", info.Stats.Reentrant)
	fmt.Fprintf(&sb, "  竞争次数: %d\n", info.Stats.Contended)
	fmt.Fprintf(&sb, "  累计等待: %s\n", info.Stats.WaitTotal)

	if info.Stats.Contended > 0 {
		avg := info.Stats.WaitTotal / time.Duration(info.Stats.Contended)
		fmt.Fprintf(&sb, "  平均等待: %s\n", avg)
	}

	return sb.String(), nil
}

// configCommand config 命令。
type configCommand struct {
	server *Server
}

func newConfigCommand(s *Server) *configCommand {
	return &configCommand{server: s}
}

func (c *configCommand) Name() string {
	return "config"
}

func (c *configCommand) Help() string {
	return "查看运行时配置"
}

// 设计决策: 框架层不添加自动脱敏兜底。框架无法预知哪些配置键是敏感的（密码/Token/DSN
// 的命名因业务而异），强行匹配关键字会产生大量误报或漏报。脱敏责任由 ConfigProvider.Dump()
// 实现方承担（见 interfaces.go 安全警告），这与 Go 标准库 database/sql.DB.Stats() 等
// "返回者负责脱敏"的惯例一致。如需禁用 config 命令，可使用 WithCommandWhitelist 排除。
func (c *configCommand) Execute(_ context.Context, _ []string) (string, error) {
	provider := c.server.opts.ConfigProvider
	if provider == nil {
		return "", fmt.Errorf("配置提供者未配置")
	}

	config := provider.Dump()
	if config == nil {
		return "配置为空", nil
	}

	s, err := xjson.PrettyE(config)
	if err != nil {
		return "", fmt.Errorf("序列化配置失败: %w", err)
	}

	return s, nil
}
