package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 在配置文件变更后被调用，err 表示这次重载是否成功。
type WatchCallback func(cfg Config, err error)

// Watcher 监视配置文件变更并自动重载。
type Watcher struct {
	cfg      *koanfConfig
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	timer    *time.Timer // 防抖定时器，Stop() 时要一并取消
}

// WatchOption 配置监视器。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{
		debounce: 100 * time.Millisecond,
	}
}

// WithDebounce 设置防抖窗口：窗口内的多次变更只触发一次重载。
// 默认 100ms；非正值在 Watch 时返回 [ErrInvalidDebounce]。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// Watch 创建配置文件监视器。
//
// 文件变更后自动 Reload() 并调用 callback 通知结果，
// 典型用途是把文件里的日志级别变更实时应用到 [xlog.Leveler]。
//
// 约束：
//   - 只能监视从文件创建的 Config（New），从字节创建的返回 [ErrNotFromFile]
//   - callback 不可为 nil
//   - 返回的 Watcher 需调用 Start() 或 StartAsync() 才开始监视，Stop() 停止
//   - 回调里的 panic 会被恢复，不终止监视循环
//
// 示例:
//
//	cfg, _ := xconf.New("/etc/lockkit/config.yaml")
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//	    if err != nil {
//	        xlog.Warn(ctx, "配置重载失败", xlog.Err(err))
//	        return
//	    }
//	    lv.SetLevel(mustParseLevel(c.Client().String("log.level")))
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	w.StartAsync()
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported config type %T", ErrWatchFailed, cfg)
	}
	if kc.isBytes {
		return nil, ErrNotFromFile
	}
	if kc.path == "" {
		return nil, ErrEmptyPath
	}
	if callback == nil {
		return nil, ErrNilCallback
	}

	options := defaultWatchOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.debounce <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDebounce, options.debounce)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchFailed, err)
	}

	// 监视所在目录而非文件本身：编辑器保存时常先删后建，
	// 直接盯文件会在那一刻丢失监视点。
	dir := filepath.Dir(kc.path)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("%w: watch directory %s: %w", ErrWatchFailed, dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		cfg:      kc,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// begin 置位 running 标志，重复启动返回 false。
func (w *Watcher) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false
	}
	w.running = true
	return true
}

// Start 启动监视并阻塞，通常放在 goroutine 里调用。
func (w *Watcher) Start() {
	if w.begin() {
		w.run()
	}
}

// StartAsync 在后台 goroutine 中启动监视，立即返回。
// running 标志在启动 goroutine 前就置位，与 Stop() 无竞态。
func (w *Watcher) StartAsync() {
	if w.begin() {
		go w.run()
	}
}

// Stop 停止监视并释放 fsnotify 资源，幂等；未启动的 Watcher 也可调用。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return nil
	}

	// 防抖定时器也要停，否则 Stop 之后还可能触发回调
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	w.running = false
	return w.watcher.Close()
}

// run 是监视主循环。
func (w *Watcher) run() {
	filename := filepath.Base(w.cfg.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.invokeCallback(fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

// handleEvent 过滤无关事件并带防抖地触发重载。
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}

	// Write 是常规修改；Create 和 Rename 覆盖编辑器的原子写入
	// （vim/emacs 写临时文件后 rename 回原名）。
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		// Stop 和定时器触发存在竞窗，这里再确认一次
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.invokeCallback(w.cfg.Reload())
	})
}

// invokeCallback 调用用户回调并吸收其中的 panic。
// 回调跑在监视或定时器 goroutine 上，任其 panic 会终止整个进程。
func (w *Watcher) invokeCallback(err error) {
	if w.callback == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	w.callback(w.cfg, err)
}

// WatchConfig 在 Config 之上叠加监视能力。
type WatchConfig interface {
	Config

	// Watch 监视配置文件变更，变更后自动重载并调用 callback。
	Watch(callback WatchCallback, opts ...WatchOption) (*Watcher, error)
}

func (c *koanfConfig) Watch(callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	return Watch(c, callback, opts...)
}
