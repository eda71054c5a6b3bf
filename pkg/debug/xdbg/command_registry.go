package xdbg

import (
	"sort"
	"sync"
)

// alwaysAllowed 白名单约束不到的命令。
// 没有 help 和 exit 的会话基本不可用，因此这两个命令无条件放行。
var alwaysAllowed = map[string]struct{}{
	"help": {},
	"exit": {},
}

// CommandRegistry 命令注册表。
type CommandRegistry struct {
	mu        sync.RWMutex
	commands  map[string]Command
	whitelist map[string]struct{} // nil 表示不启用白名单
}

// NewCommandRegistry 创建空的命令注册表。
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]Command),
	}
}

// Register 注册命令，同名命令会被覆盖。
func (r *CommandRegistry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
}

// Unregister 移除命令，不存在时为空操作。
func (r *CommandRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
}

// Get 按名称查找命令，不存在返回 nil。
func (r *CommandRegistry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// Has 判断命令是否已注册。
func (r *CommandRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[name]
	return ok
}

// sortedNames 返回按字典序排列的命令名，调用方需持有读锁。
func (r *CommandRegistry) sortedNames() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List 返回全部命令名，按字典序排列。
func (r *CommandRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

// Commands 返回全部命令，按名称排序。
func (r *CommandRegistry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]Command, 0, len(r.commands))
	for _, name := range r.sortedNames() {
		cmds = append(cmds, r.commands[name])
	}
	return cmds
}

// SetWhitelist 设置命令白名单。
// nil 关闭白名单（放行全部命令）；空切片 []string{} 表示只放行
// 必要命令（help, exit）。
func (r *CommandRegistry) SetWhitelist(whitelist []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if whitelist == nil {
		r.whitelist = nil
		return
	}

	r.whitelist = make(map[string]struct{}, len(whitelist))
	for _, name := range whitelist {
		r.whitelist[name] = struct{}{}
	}
}

// IsAllowed 判断命令是否允许执行。
// 必要命令始终放行；白名单未启用时全部放行。
func (r *CommandRegistry) IsAllowed(name string) bool {
	if _, ok := alwaysAllowed[name]; ok {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.whitelist == nil {
		return true
	}
	_, ok := r.whitelist[name]
	return ok
}

// Count 返回已注册命令的数量。
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
