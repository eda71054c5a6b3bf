package xdbg

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/omeyang/lockkit/pkg/observability/xmetrics"
)

// 各项配置的默认值。
const (
	// DefaultAutoShutdown 空闲自动关闭的默认等待时长。
	DefaultAutoShutdown = 5 * time.Minute

	// DefaultMaxSessions 并发会话数默认值。
	DefaultMaxSessions = 1

	// DefaultMaxConcurrentCommands 并发命令数默认值。
	DefaultMaxConcurrentCommands = 5

	// DefaultCommandTimeout 单条命令的默认执行超时。
	DefaultCommandTimeout = 30 * time.Second

	// DefaultShutdownTimeout 优雅关闭的默认等待时长。
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultSessionReadTimeout 会话读超时默认值，挡住连上来不说话的客户端。
	DefaultSessionReadTimeout = 60 * time.Second

	// DefaultSessionWriteTimeout 会话写超时默认值，挡住只连不读的客户端。
	DefaultSessionWriteTimeout = 30 * time.Second
)

// 配置硬上界。超出这些值的配置多半是写错了，直接拒绝而不是照单全收。
const (
	maxSessions = 1 << 8 // 256

	maxConcurrentCommands = 1 << 10 // 1024
)

// options 汇总服务器的全部可调项。
//
// 设计决策: 类型不导出，构造必须走 With* 选项并经过 validateOptions，
// 用户无法拼出一个未经校验的配置。选项风格与 xglock、xpool 保持一致。
type options struct {
	// ---- 传输 ----

	// SocketPath Unix Socket 路径。
	SocketPath string

	// SocketPerm Socket 文件权限位。
	SocketPerm uint32

	// Transport 自定义传输层，主要给测试用。
	Transport Transport

	// ---- 容量与超时 ----

	// AutoShutdown 激活后空闲多久自动关闭，0 表示一直开着。
	AutoShutdown time.Duration

	// MaxSessions 同时接待的会话数上限。
	MaxSessions int

	// MaxConcurrentCommands 全服务器同时执行的命令数上限。
	MaxConcurrentCommands int

	// CommandTimeout 单条命令的执行超时。
	CommandTimeout time.Duration

	// ShutdownTimeout 优雅关闭的等待上限。
	ShutdownTimeout time.Duration

	// MaxOutputSize 单条命令输出的字节上限。
	MaxOutputSize int

	// SessionReadTimeout 会话读超时，0 表示不限。
	SessionReadTimeout time.Duration

	// SessionWriteTimeout 会话写超时，0 表示不限。
	SessionWriteTimeout time.Duration

	// ---- 安全 ----

	// CommandWhitelist 命令白名单。
	// nil 放行全部命令；空切片只留 help 和 exit。
	// 设计决策: 默认 nil。调试入口本身要显式激活（信号或 Enable 调用），
	// 又有 0600 的 Socket 权限和空闲自动关闭兜底，开发环境全放行更省事；
	// 生产环境应当用 WithCommandWhitelist 把命令集收紧。
	CommandWhitelist []string

	// AuditLogger 审计日志出口。
	AuditLogger AuditLogger

	// AuditSanitizer 写审计前对命令参数脱敏，可选。
	AuditSanitizer AuditSanitizer

	// ---- 集成 ----

	// BackgroundMode 后台模式：不挂信号处理，只认 Enable/Disable 调用。
	BackgroundMode bool

	// Leveler 运行时日志级别开关，setlog 命令的后端。
	Leveler Leveler

	// LockRegistry 锁组注册表，locks 和 lock 命令的数据来源。
	LockRegistry LockRegistry

	// ConfigProvider 生效配置快照的来源，config 命令的后端。
	ConfigProvider ConfigProvider

	// Observer 命令执行观测器，可选。
	Observer xmetrics.Observer

	// ProfileDir pprof 产物的落盘目录，空表示系统临时目录。
	ProfileDir string
}

// Option 配置选项函数类型。
type Option func(*options)

// defaultOptions 返回默认配置。
func defaultOptions() *options {
	return &options{
		SocketPath:            DefaultSocketPath,
		SocketPerm:            DefaultSocketPerm,
		AutoShutdown:          DefaultAutoShutdown,
		MaxSessions:           DefaultMaxSessions,
		MaxConcurrentCommands: DefaultMaxConcurrentCommands,
		CommandTimeout:        DefaultCommandTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		MaxOutputSize:         DefaultMaxOutputSize,
		SessionReadTimeout:    DefaultSessionReadTimeout,
		SessionWriteTimeout:   DefaultSessionWriteTimeout,
		AuditLogger:           NewDefaultAuditLogger(),
	}
}

// ---- 传输选项 ----

// WithSocketPath 指定 Unix Socket 路径。
func WithSocketPath(path string) Option {
	return func(o *options) {
		o.SocketPath = path
	}
}

// WithSocketPerm 指定 Socket 文件权限。
func WithSocketPerm(perm uint32) Option {
	return func(o *options) {
		o.SocketPerm = perm
	}
}

// WithTransport 换用自定义传输层，测试时可注入内存实现。
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.Transport = t
	}
}

// ---- 容量与超时选项 ----

// WithAutoShutdown 指定空闲自动关闭的等待时长，0 关闭该机制。
func WithAutoShutdown(d time.Duration) Option {
	return func(o *options) {
		o.AutoShutdown = d
	}
}

// WithMaxSessions 指定并发会话数上限。
func WithMaxSessions(n int) Option {
	return func(o *options) {
		o.MaxSessions = n
	}
}

// WithMaxConcurrentCommands 指定并发命令数上限。
func WithMaxConcurrentCommands(n int) Option {
	return func(o *options) {
		o.MaxConcurrentCommands = n
	}
}

// WithCommandTimeout 指定单条命令的执行超时。
func WithCommandTimeout(d time.Duration) Option {
	return func(o *options) {
		o.CommandTimeout = d
	}
}

// WithShutdownTimeout 指定优雅关闭的等待上限。
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.ShutdownTimeout = d
	}
}

// WithMaxOutputSize 指定命令输出的字节上限。
func WithMaxOutputSize(size int) Option {
	return func(o *options) {
		o.MaxOutputSize = size
	}
}

// WithSessionReadTimeout 指定会话读超时。
func WithSessionReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.SessionReadTimeout = d
	}
}

// WithSessionWriteTimeout 指定会话写超时。
func WithSessionWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.SessionWriteTimeout = d
	}
}

// ---- 安全选项 ----

// WithCommandWhitelist 指定命令白名单。
// nil 放行全部命令，空切片只留 help 和 exit。
func WithCommandWhitelist(whitelist []string) Option {
	return func(o *options) {
		o.CommandWhitelist = whitelist
	}
}

// WithAuditLogger 指定审计日志出口。
func WithAuditLogger(logger AuditLogger) Option {
	return func(o *options) {
		o.AuditLogger = logger
	}
}

// WithAuditSanitizer 指定审计参数脱敏函数，
// 敏感参数在落审计日志前先过一遍它。示例：
//
//	xdbg.WithAuditSanitizer(func(command string, args []string) []string {
//	    if command == "config" && len(args) > 1 {
//	        return xdbg.SanitizeArgs(args)
//	    }
//	    return args
//	})
func WithAuditSanitizer(sanitizer AuditSanitizer) Option {
	return func(o *options) {
		o.AuditSanitizer = sanitizer
	}
}

// ---- 集成选项 ----

// WithBackgroundMode 切换后台模式。
// 后台模式不注册信号处理，激活与关停全靠 Enable/Disable。
func WithBackgroundMode(enabled bool) Option {
	return func(o *options) {
		o.BackgroundMode = enabled
	}
}

// WithLeveler 接入日志级别开关，供 setlog 命令调用。
func WithLeveler(leveler Leveler) Option {
	return func(o *options) {
		o.Leveler = leveler
	}
}

// WithLockRegistry 接入锁组注册表，供 locks 和 lock 命令查询。
// 通常传 xglock.DefaultRegistry() 或自建的 *xglock.Registry。
func WithLockRegistry(registry LockRegistry) Option {
	return func(o *options) {
		o.LockRegistry = registry
	}
}

// WithConfigProvider 接入配置提供者，供 config 命令导出生效配置。
func WithConfigProvider(provider ConfigProvider) Option {
	return func(o *options) {
		o.ConfigProvider = provider
	}
}

// WithObserver 接入命令执行观测器。
// 每条命令产生一个 Component 为 "xdbg"、Operation 为命令名的跨度。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		o.Observer = observer
	}
}

// WithProfileDir 指定 pprof 产物的落盘目录。
// 必须是绝对路径；留空用系统临时目录。
func WithProfileDir(dir string) Option {
	return func(o *options) {
		o.ProfileDir = dir
	}
}

// ---- 校验 ----

// validateOptions 逐项校验配置。
func validateOptions(opts *options) error {
	if err := checkLimits(opts); err != nil {
		return err
	}
	if err := checkTimeouts(opts); err != nil {
		return err
	}
	if err := checkSocketPath(opts.SocketPath); err != nil {
		return fmt.Errorf("invalid socket path: %w", err)
	}
	if err := checkSocketPerm(opts.SocketPerm); err != nil {
		return err
	}
	return checkProfileDir(opts.ProfileDir)
}

// checkLimits 校验数值项的范围。
func checkLimits(opts *options) error {
	bounded := []struct {
		name  string
		value int
		upper int
	}{
		{"MaxSessions", opts.MaxSessions, maxSessions},
		{"MaxConcurrentCommands", opts.MaxConcurrentCommands, maxConcurrentCommands},
	}
	for _, b := range bounded {
		if b.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", b.name, b.value)
		}
		if b.value > b.upper {
			return fmt.Errorf("%s exceeds upper bound (%d), got %d", b.name, b.upper, b.value)
		}
	}

	if opts.MaxOutputSize <= 0 {
		return fmt.Errorf("MaxOutputSize must be positive, got %d", opts.MaxOutputSize)
	}
	// 输出上限再高也要留出 JSON 结构开销，否则响应编码阶段必然失败
	if limit := MaxPayloadSize - JSONOverhead; opts.MaxOutputSize > limit {
		return fmt.Errorf("MaxOutputSize (%d) exceeds MaxPayloadSize safety limit (%d)", opts.MaxOutputSize, limit)
	}
	return nil
}

// checkTimeouts 校验超时项。命令和关闭超时必须为正，会话超时允许 0（不限时）。
func checkTimeouts(opts *options) error {
	if opts.CommandTimeout <= 0 {
		return fmt.Errorf("CommandTimeout must be positive, got %v", opts.CommandTimeout)
	}
	if opts.ShutdownTimeout <= 0 {
		return fmt.Errorf("ShutdownTimeout must be positive, got %v", opts.ShutdownTimeout)
	}
	if opts.SessionReadTimeout < 0 {
		return fmt.Errorf("SessionReadTimeout must be non-negative, got %v", opts.SessionReadTimeout)
	}
	if opts.SessionWriteTimeout < 0 {
		return fmt.Errorf("SessionWriteTimeout must be non-negative, got %v", opts.SessionWriteTimeout)
	}
	return nil
}

// sensitiveDirs 列出不允许放 Socket 的系统目录。
var sensitiveDirs = []string{
	"/etc/",
	"/usr/",
	"/bin/",
	"/sbin/",
	"/boot/",
	"/proc/",
	"/sys/",
	"/dev/",
}

// checkSocketPath 校验 Socket 路径是否安全。
func checkSocketPath(path string) error {
	if path == "" {
		return fmt.Errorf("socket path cannot be empty")
	}

	// 设计决策: 遍历片段要在 Clean 之前查。filepath.Clean 会把
	// "/tmp/../etc/foo" 折叠成 "/etc/foo"，".." 就从结果里消失了，
	// 只查清理后的路径会放过带遍历语义的输入。
	if strings.Contains(path, "..") {
		return fmt.Errorf("socket path contains path traversal: %s", path)
	}

	cleanPath := filepath.Clean(path)

	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("socket path must be absolute: %s", path)
	}

	for _, dir := range sensitiveDirs {
		if strings.HasPrefix(cleanPath, dir) {
			return fmt.Errorf("socket path in sensitive directory: %s", path)
		}
	}

	return nil
}

// checkSocketPerm 校验 Socket 权限位。
//
// 设计决策: "other" 不允许有任何权限位（0o007 掩码），调试 Socket 上
// 能跑 pprof、config、setlog 这类高风险命令。"group" 位保留，
// 组策略（比如 K8s Pod 安全上下文）还要靠它分配访问权。
func checkSocketPerm(perm uint32) error {
	if perm == 0 {
		return fmt.Errorf("SocketPerm must be non-zero")
	}
	if perm&0o007 != 0 {
		return fmt.Errorf("SocketPerm must not grant 'other' access (got %04o): "+
			"debug socket allows high-risk commands, restrict to owner/group only", perm)
	}
	return nil
}

// checkProfileDir 校验 pprof 落盘目录。
// 空值合法；非空必须是绝对路径，profile 文件不能落进工作目录这种不可控位置。
func checkProfileDir(dir string) error {
	if dir == "" {
		return nil
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("ProfileDir must be absolute: %s", dir)
	}
	return nil
}
