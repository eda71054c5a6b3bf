package xdbg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/omeyang/lockkit/pkg/observability/xrotate"
	"github.com/omeyang/lockkit/pkg/util/xjson"
	"github.com/omeyang/lockkit/pkg/util/xpool"
)

// AuditEvent 审计事件类型。
type AuditEvent string

const (
	// AuditEventServerStart 服务启动。
	AuditEventServerStart AuditEvent = "SERVER_START"

	// AuditEventServerStop 服务停止。
	AuditEventServerStop AuditEvent = "SERVER_STOP"

	// AuditEventSessionStart 会话开始。
	AuditEventSessionStart AuditEvent = "SESSION_START"

	// AuditEventSessionEnd 会话结束。
	AuditEventSessionEnd AuditEvent = "SESSION_END"

	// AuditEventCommand 命令执行。
	AuditEventCommand AuditEvent = "COMMAND"

	// AuditEventCommandSuccess 命令执行成功。
	AuditEventCommandSuccess AuditEvent = "COMMAND_SUCCESS"

	// AuditEventCommandFailed 命令执行失败。
	AuditEventCommandFailed AuditEvent = "COMMAND_FAILED"

	// AuditEventCommandForbidden 命令被禁止。
	AuditEventCommandForbidden AuditEvent = "COMMAND_FORBIDDEN"
)

// AuditFormat 审计日志输出格式。
type AuditFormat string

const (
	// AuditFormatText 文本格式，与 NewDefaultAuditLogger 的输出一致。
	AuditFormatText AuditFormat = "text"

	// AuditFormatJSON JSON 行格式，便于日志聚合系统（如 ELK、Loki）解析。
	AuditFormatJSON AuditFormat = "json"
)

// AuditRecord 审计记录。
type AuditRecord struct {
	// Timestamp 时间戳。
	Timestamp time.Time

	// Event 事件类型。
	Event AuditEvent

	// Identity 身份信息（可能为 nil）。
	Identity *IdentityInfo

	// Command 命令名（仅命令事件有值）。
	Command string

	// Args 命令参数（仅命令事件有值）。
	Args []string

	// Duration 执行耗时（仅命令完成事件有值）。
	Duration time.Duration

	// Error 错误信息（仅失败事件有值）。
	Error string

	// Extra 额外信息。
	Extra map[string]string
}

// AuditLogger 审计日志记录器接口。
type AuditLogger interface {
	// Log 记录审计事件。
	Log(record *AuditRecord)

	// Close 关闭记录器。
	Close() error
}

// AuditSanitizer 审计参数脱敏函数类型。
// 用于在记录审计日志前对敏感参数进行脱敏处理。
type AuditSanitizer func(command string, args []string) []string

// DefaultAuditSanitizer 默认脱敏函数。
// 默认不进行脱敏，直接返回原始参数。
//
// 设计决策: 默认透传而非"默认全遮蔽"。内置命令（setlog、stack、freemem、pprof）
// 的参数均不含敏感信息，"默认遮蔽"会让审计日志在大多数场景下丧失可读性。
// 如需对自定义命令参数脱敏，使用 WithAuditSanitizer 配置按命令/参数名过滤。
func DefaultAuditSanitizer(_ string, args []string) []string {
	return args
}

// SanitizeArgs 脱敏参数辅助函数。
// 将所有参数值替换为 "***"，保留参数个数但隐藏具体值。
// 可用于自定义 AuditSanitizer 实现中对敏感参数的处理。
func SanitizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	sanitized := make([]string, len(args))
	for i := range args {
		sanitized[i] = "***"
	}
	return sanitized
}

// formatAuditText 将审计记录格式化为单行文本。
// 格式: [timestamp] [XDBG] [event] identity=xxx command=xxx args=xxx duration=xxx error=xxx
func formatAuditText(record *AuditRecord) string {
	ts := record.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")

	var identity string
	if record.Identity != nil {
		identity = record.Identity.String()
	} else {
		identity = "unknown"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [XDBG] [%s] identity=%s", ts, record.Event, identity)

	if record.Command != "" {
		fmt.Fprintf(&sb, " command=%q", record.Command)
	}

	if len(record.Args) > 0 {
		fmt.Fprintf(&sb, " args=%q", record.Args)
	}

	if record.Duration > 0 {
		fmt.Fprintf(&sb, " duration=%s", record.Duration)
	}

	if record.Error != "" {
		fmt.Fprintf(&sb, " error=%q", record.Error)
	}

	for k, v := range record.Extra {
		fmt.Fprintf(&sb, " %q=%q", k, v)
	}

	return sb.String()
}

// jsonAuditRecord JSON 审计记录结构（用于序列化）。
type jsonAuditRecord struct {
	Timestamp string            `json:"timestamp"`
	Event     AuditEvent        `json:"event"`
	Identity  *IdentityInfo     `json:"identity,omitempty"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Duration  string            `json:"duration,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// marshalAuditJSON 将审计记录序列化为单行 JSON。
func marshalAuditJSON(record *AuditRecord) ([]byte, error) {
	jr := jsonAuditRecord{
		Timestamp: record.Timestamp.Format(time.RFC3339Nano),
		Event:     record.Event,
		Identity:  record.Identity,
		Command:   record.Command,
		Args:      record.Args,
		Error:     record.Error,
		Extra:     record.Extra,
	}

	if record.Duration > 0 {
		jr.Duration = record.Duration.String()
	}

	return xjson.CompactE(jr)
}

// defaultAuditLogger 默认审计日志记录器（输出到 stderr）。
type defaultAuditLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewDefaultAuditLogger 创建默认审计日志记录器。
func NewDefaultAuditLogger() AuditLogger {
	return &defaultAuditLogger{
		writer: os.Stderr,
	}
}

// NewAuditLogger 创建自定义输出的审计日志记录器。
func NewAuditLogger(writer io.Writer) AuditLogger {
	return &defaultAuditLogger{
		writer: writer,
	}
}

// Log 记录审计事件。
func (l *defaultAuditLogger) Log(record *AuditRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := formatAuditText(record)
	if _, err := fmt.Fprintln(l.writer, line); err != nil {
		// 如果 writer 不是 stderr，尝试写入 stderr 作为后备
		if l.writer != os.Stderr {
			fmt.Fprintf(os.Stderr, "[XDBG] audit log write failed: %v, original: %s\n", err, line)
		}
		// 如果 writer 就是 stderr，写入失败无法有效处理，静默忽略
	}
}

// Close 关闭记录器。
func (l *defaultAuditLogger) Close() error {
	return nil
}

// noopAuditLogger 空操作审计日志记录器。
type noopAuditLogger struct{}

// NewNoopAuditLogger 创建空操作审计日志记录器。
func NewNoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

// Log 空操作。
func (l *noopAuditLogger) Log(_ *AuditRecord) {}

// Close 空操作。
func (l *noopAuditLogger) Close() error { return nil }

// jsonAuditLogger JSON 格式审计日志记录器。
// 便于日志聚合系统（如 ELK、Loki）解析。
type jsonAuditLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONAuditLogger 创建 JSON 格式审计日志记录器。
func NewJSONAuditLogger(writer io.Writer) AuditLogger {
	return &jsonAuditLogger{writer: writer}
}

// Log 记录审计事件（JSON 格式）。
func (l *jsonAuditLogger) Log(record *AuditRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := marshalAuditJSON(record)
	if err != nil {
		// JSON 序列化失败是代码 bug，输出到 stderr
		fmt.Fprintf(os.Stderr, "[XDBG] json marshal failed: %v\n", err)
		return
	}

	if _, err := fmt.Fprintln(l.writer, string(data)); err != nil {
		if l.writer != os.Stderr {
			fmt.Fprintf(os.Stderr, "[XDBG] audit log write failed: %v\n", err)
		}
	}
}

// Close 关闭记录器。
func (l *jsonAuditLogger) Close() error { return nil }

// fileAuditQueueSize 文件审计日志的待写队列容量。
// 队列满时新记录被丢弃（见 fileAuditLogger.Log），不阻塞命令执行路径。
const fileAuditQueueSize = 1024

// fileAuditLogger 异步文件审计日志记录器。
// 记录经由单 worker 串行写入轮转文件，Log 调用方不承担磁盘 IO 延迟。
type fileAuditLogger struct {
	format  AuditFormat
	rotator xrotate.Rotator
	pool    *xpool.Pool[*AuditRecord]

	closeOnce sync.Once
	closeErr  error
}

// NewFileAuditLogger 创建写入文件的异步审计日志记录器。
// 文件通过 xrotate 按大小轮转；写入由后台 worker 串行执行。
// format 取 AuditFormatText 或 AuditFormatJSON。
func NewFileAuditLogger(path string, format AuditFormat) (AuditLogger, error) {
	switch format {
	case AuditFormatText, AuditFormatJSON:
	default:
		return nil, fmt.Errorf("unsupported audit format: %q", format)
	}

	rotator, err := xrotate.NewLumberjack(path)
	if err != nil {
		return nil, fmt.Errorf("create audit rotator: %w", err)
	}

	l := &fileAuditLogger{
		format:  format,
		rotator: rotator,
	}

	// 单 worker 保证写入串行，省去 writer 层面的锁
	pool, err := xpool.New[*AuditRecord](1, fileAuditQueueSize, l.write, xpool.WithName("xdbg-audit"))
	if err != nil {
		if closeErr := rotator.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "[XDBG] failed to close audit rotator during cleanup: %v\n", closeErr)
		}
		return nil, fmt.Errorf("create audit pool: %w", err)
	}
	l.pool = pool

	return l, nil
}

// Log 将记录提交到写入队列。
// 队列已满或记录器已关闭时丢弃该记录并输出提示到 stderr，不阻塞调用方。
func (l *fileAuditLogger) Log(record *AuditRecord) {
	if err := l.pool.Submit(record); err != nil {
		fmt.Fprintf(os.Stderr, "[XDBG] audit record dropped: %v\n", err)
	}
}

// write 由 worker 串行调用。
func (l *fileAuditLogger) write(record *AuditRecord) {
	var line []byte
	switch l.format {
	case AuditFormatJSON:
		data, err := marshalAuditJSON(record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[XDBG] json marshal failed: %v\n", err)
			return
		}
		line = append(data, '\n')
	default:
		line = append([]byte(formatAuditText(record)), '\n')
	}

	if _, err := l.rotator.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "[XDBG] audit log write failed: %v\n", err)
	}
}

// Close 排空待写队列后关闭轮转文件。
func (l *fileAuditLogger) Close() error {
	l.closeOnce.Do(func() {
		var errs []error
		if err := l.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit pool: %w", err))
		}
		if err := l.rotator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit rotator: %w", err))
		}
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}
