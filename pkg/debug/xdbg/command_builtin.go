//go:build !windows

package xdbg

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"slices"
	"strings"
	"sync"
	"time"
)

// mustCommand 包装 NewCommandFunc。内置命令的执行函数都是字面量，
// 不可能为 nil，错误分支走不到。
func mustCommand(name, help string, fn func(context.Context, []string) (string, error)) Command {
	cmd, err := NewCommandFunc(name, help, fn)
	if err != nil {
		panic(err)
	}
	return cmd
}

// registerBuiltinCommands 挂上全部内置命令。
func (s *Server) registerBuiltinCommands() {
	s.registry.Register(s.helpCommand())
	s.registry.Register(s.exitCommand())
	s.registry.Register(s.setlogCommand())
	s.registry.Register(stackCommand())
	s.registry.Register(freememCommand())

	// pprof 命令握着打开的 profile 文件，Stop 时要单独走 Cleanup
	s.pprofCmd = newPprofCommand(s)
	s.registry.Register(s.pprofCmd)
}

// helpCommand 组装 help 命令：不带参数列全部命令，带参数查单条。
func (s *Server) helpCommand() Command {
	return mustCommand("help", "显示帮助信息", func(_ context.Context, args []string) (string, error) {
		if len(args) > 0 {
			cmd := s.registry.Get(args[0])
			if cmd == nil {
				return "", fmt.Errorf("未知命令: %s", args[0])
			}
			return fmt.Sprintf("%s - %s\n", cmd.Name(), cmd.Help()), nil
		}

		var sb strings.Builder
		sb.WriteString("可用命令:\n")
		for _, cmd := range s.registry.Commands() {
			fmt.Fprintf(&sb, "  %-12s %s\n", cmd.Name(), cmd.Help())
		}
		sb.WriteString("\n使用 'help <command>' 查看命令详情")
		return sb.String(), nil
	})
}

// exitCommand 组装 exit 命令，关掉调试服务但不动宿主进程。
func (s *Server) exitCommand() Command {
	return mustCommand("exit", "关闭调试服务（不影响主应用）", func(_ context.Context, _ []string) (string, error) {
		// 设计决策: 等 100ms 再 Disable，给响应留出写回客户端的时间。
		// 立刻关会把 socket 一起带走，客户端看不到"即将关闭"的确认。
		// goroutine 记在 WaitGroup 上，Stop() 会等它，Disable 不会落在
		// Stop 之后执行。
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			time.Sleep(100 * time.Millisecond)
			if err := s.Disable(); err != nil {
				s.audit(AuditEventCommandFailed, nil, "exit:disable", nil, 0, err)
			}
		}()
		return "调试服务即将关闭", nil
	})
}

// logLevels setlog 接受的级别，顺序即帮助文本中的顺序。
var logLevels = []string{"debug", "info", "warn", "error"}

// setlogCommand 组装 setlog 命令：不带参数查当前级别，带参数改级别。
func (s *Server) setlogCommand() Command {
	return mustCommand("setlog", "修改日志级别 (debug/info/warn/error)", func(_ context.Context, args []string) (string, error) {
		leveler := s.opts.Leveler
		if leveler == nil {
			return "", fmt.Errorf("日志级别控制器未配置")
		}

		if len(args) == 0 {
			return fmt.Sprintf("当前日志级别: %s", leveler.Level()), nil
		}

		level := strings.ToLower(args[0])
		if !slices.Contains(logLevels, level) {
			return "", fmt.Errorf("无效的日志级别: %s，支持: %s", level, strings.Join(logLevels, "/"))
		}

		if err := leveler.SetLevel(level); err != nil {
			return "", fmt.Errorf("设置日志级别失败: %w", err)
		}

		return fmt.Sprintf("日志级别已修改为: %s", level), nil
	})
}

// stackCommand 组装 stack 命令，导出全部 goroutine 的栈。
func stackCommand() Command {
	return mustCommand("stack", "打印所有 goroutine 堆栈", func(ctx context.Context, _ []string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// 缓冲区从 64KB 倍增到放得下为止，1MB 封顶。
		// 一上来就给 1MB 对小进程纯属浪费。
		const maxStackDump = 1 << 20

		size := 64 << 10
		for {
			buf := make([]byte, size)
			n := runtime.Stack(buf, true)
			if n < len(buf) || size >= maxStackDump {
				return string(buf[:n]), nil
			}
			size = min(size*2, maxStackDump)
		}
	})
}

// freememCommand 组装 freemem 命令，把空闲堆内存还给操作系统。
func freememCommand() Command {
	return mustCommand("freemem", "释放内存到操作系统", func(ctx context.Context, _ []string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		debug.FreeOSMemory()
		runtime.ReadMemStats(&after)

		return fmt.Sprintf(
			"内存释放完成\n释放前 HeapInuse: %d MB\n释放后 HeapInuse: %d MB",
			before.HeapInuse/1024/1024,
			after.HeapInuse/1024/1024,
		), nil
	})
}

// pprofUsage pprof 命令的用法说明，无参数或参数不全时原样返回。
const pprofUsage = `pprof 使用方法:
  pprof cpu start   - 开始 CPU profile
  pprof cpu stop    - 停止 CPU profile 并保存
  pprof heap        - 导出堆内存 profile
  pprof goroutine   - 导出 goroutine profile`

// pprofCommand pprof 命令。带状态：运行中的 CPU 采样和已落盘的文件清单。
type pprofCommand struct {
	server       *Server
	mu           sync.Mutex
	cpuFile      *os.File
	cpuFilePath  string
	cpuActive    bool
	profileFiles []string // 已落盘的 profile 文件，Cleanup 时删除
}

func newPprofCommand(s *Server) *pprofCommand {
	return &pprofCommand{server: s}
}

func (c *pprofCommand) Name() string {
	return "pprof"
}

func (c *pprofCommand) Help() string {
	return "性能分析 (cpu start/stop, heap, goroutine)"
}

// profileDir profile 文件的输出目录，空串走 os.CreateTemp 的系统临时目录。
func (c *pprofCommand) profileDir() string {
	return c.server.opts.ProfileDir
}

func (c *pprofCommand) Execute(ctx context.Context, args []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(args) == 0 {
		return pprofUsage, nil
	}

	switch sub := strings.ToLower(args[0]); sub {
	case "cpu":
		return c.cpuAction(args[1:])
	case "heap":
		return c.heapProfile(ctx)
	case "goroutine":
		return c.goroutineProfile(ctx)
	default:
		return "", fmt.Errorf("未知子命令: %s", sub)
	}
}

// cpuAction 分发 cpu start/stop 两个动作。
func (c *pprofCommand) cpuAction(args []string) (string, error) {
	if len(args) == 0 {
		return pprofUsage, nil
	}
	switch action := strings.ToLower(args[0]); action {
	case "start":
		return c.cpuStart()
	case "stop":
		return c.cpuStop()
	default:
		return "", fmt.Errorf("未知 CPU profile 操作: %s", action)
	}
}

// discardProfileFile 丢弃写入失败的 profile 文件。
// 清理自身的失败只进审计，调用方拿到的还是原始错误。
func (c *pprofCommand) discardProfileFile(f *os.File, op string) {
	if err := f.Close(); err != nil {
		c.server.audit(AuditEventCommandFailed, nil, op+":cleanup:close", nil, 0, err)
	}
	if err := os.Remove(f.Name()); err != nil {
		c.server.audit(AuditEventCommandFailed, nil, op+":cleanup:remove", nil, 0, err)
	}
}

// exportProfile 建随机命名的临时文件、执行写入并登记落盘结果。
// 随机文件名顺带挡掉 symlink 攻击。写入失败时文件被整个丢弃。
func (c *pprofCommand) exportProfile(kind string, write func(*os.File) error) (string, error) {
	f, err := os.CreateTemp(c.profileDir(), "xdbg_"+kind+"_*.pprof")
	if err != nil {
		return "", fmt.Errorf("创建 %s profile 文件失败: %w", kind, err)
	}
	path := f.Name()

	if err := write(f); err != nil {
		c.discardProfileFile(f, "pprof:"+kind)
		return "", err
	}

	// 数据已落盘，关闭失败只进审计
	if err := f.Close(); err != nil {
		c.server.audit(AuditEventCommandFailed, nil, "pprof:"+kind+":close", nil, 0, err)
	}

	c.trackProfileFile(path)
	return path, nil
}

func (c *pprofCommand) cpuStart() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cpuActive {
		return "", fmt.Errorf("CPU profile 已在运行中")
	}

	// 随机文件名防 symlink 攻击
	f, err := os.CreateTemp(c.profileDir(), "xdbg_cpu_*.pprof")
	if err != nil {
		return "", fmt.Errorf("创建 CPU profile 文件失败: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		c.discardProfileFile(f, "pprof:cpu")
		return "", fmt.Errorf("启动 CPU profile 失败: %w", err)
	}

	c.cpuFile = f
	c.cpuFilePath = f.Name()
	c.cpuActive = true
	return fmt.Sprintf("CPU profile 已开始，将保存到: %s\n使用 'pprof cpu stop' 停止", c.cpuFilePath), nil
}

// stopCPULocked 停止采样并关闭文件，调用方需持有 c.mu。
func (c *pprofCommand) stopCPULocked() error {
	pprof.StopCPUProfile()
	c.cpuActive = false

	if c.cpuFile == nil {
		return nil
	}
	err := c.cpuFile.Close()
	c.cpuFile = nil
	return err
}

func (c *pprofCommand) cpuStop() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cpuActive {
		return "", fmt.Errorf("CPU profile 未在运行")
	}

	if err := c.stopCPULocked(); err != nil {
		return "", fmt.Errorf("关闭 CPU profile 文件失败: %w", err)
	}

	return fmt.Sprintf("CPU profile 已停止，保存到: %s\n使用 'go tool pprof %s' 分析", c.cpuFilePath, c.cpuFilePath), nil
}

func (c *pprofCommand) heapProfile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := c.exportProfile("heap", func(f *os.File) error {
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("写入 heap profile 失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Heap profile 已导出到: %s\n\n", path)
	sb.WriteString("内存统计:\n")
	fmt.Fprintf(&sb, "  Alloc:      %d MB\n", m.Alloc/1024/1024)
	fmt.Fprintf(&sb, "  TotalAlloc: %d MB\n", m.TotalAlloc/1024/1024)
	fmt.Fprintf(&sb, "  Sys:        %d MB\n", m.Sys/1024/1024)
	fmt.Fprintf(&sb, "  NumGC:      %d\n", m.NumGC)
	fmt.Fprintf(&sb, "  HeapInuse:  %d MB\n", m.HeapInuse/1024/1024)
	fmt.Fprintf(&sb, "  HeapIdle:   %d MB\n", m.HeapIdle/1024/1024)
	fmt.Fprintf(&sb, "\n使用 'go tool pprof %s' 分析", path)

	return sb.String(), nil
}

func (c *pprofCommand) goroutineProfile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var p *pprof.Profile
	path, err := c.exportProfile("goroutine", func(f *os.File) error {
		p = pprof.Lookup("goroutine")
		if p == nil {
			return fmt.Errorf("获取 goroutine profile 失败")
		}
		if err := p.WriteTo(f, 0); err != nil {
			return fmt.Errorf("写入 goroutine profile 失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Goroutine profile 已导出到: %s\n\n", path)
	fmt.Fprintf(&sb, "Goroutine 数量: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&sb, "Goroutine profile count: %d\n", p.Count())
	fmt.Fprintf(&sb, "\n使用 'go tool pprof %s' 分析", path)

	return sb.String(), nil
}

// trackProfileFile 登记已落盘的 profile 文件，Cleanup 时统一删除。
func (c *pprofCommand) trackProfileFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profileFiles = append(c.profileFiles, path)
}

// Cleanup 在 Server 关闭时回收资源：停掉跑着的 CPU 采样，
// 删光登记过的临时 profile 文件，反复采样不在磁盘上留垃圾。
func (c *pprofCommand) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cpuActive {
		if err := c.stopCPULocked(); err != nil {
			// 关闭阶段审计日志可能已不可用，只能落 stderr
			fmt.Fprintf(os.Stderr, "[XDBG] failed to close CPU profile file: %v\n", err)
		}
	}

	for _, path := range c.profileFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "[XDBG] failed to remove profile file %s: %v\n", path, err)
		}
	}
	c.profileFiles = nil
}
