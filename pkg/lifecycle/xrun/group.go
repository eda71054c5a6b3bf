package xrun

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"
)

// Group 在 errgroup 之上协调一组服务的启动与关闭。
//
// 任一服务返回非 nil 错误、外部调用 Cancel、或父 context 被取消，
// 组内所有服务都会收到取消信号。
//
// Go、GoWithName、Cancel 并发安全；Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx)
//	g.Go(func(ctx context.Context) error {
//	    return runServer(ctx)
//	})
//	g.Go(func(ctx context.Context) error {
//	    return runWorker(ctx)
//	})
//	if err := g.Wait(); err != nil {
//	    log.Fatal(err)
//	}
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group 并返回派生 context。
// 任一 goroutine 出错或 Cancel 被调用时，派生 context 会被取消。
//
//	g, ctx := xrun.NewGroup(context.Background(),
//	    xrun.WithName("lockkitd"),
//	    xrun.WithLogger(logger),
//	)
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	// 设计决策: nil context 静默归一化为 Background，
	// 否则 context.WithCancelCause(nil) 直接 panic。
	// 签名保持与 errgroup.WithContext 对齐，不加错误返回值。
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		// nil Option 直接跳过，与 WithLogger(nil)、WithName("") 的容错口径一致。
		if opt == nil {
			continue
		}
		opt(options)
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 启动一个 goroutine 执行 fn。fn 返回非 nil 错误会取消组内其余服务。
//
// fn 应监听 ctx.Done() 以便及时退出：
//
//	g.Go(func(ctx context.Context) error {
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return ctx.Err()
//	        default:
//	            doWork()
//	        }
//	    }
//	})
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 等价，额外在生命周期日志里带上服务名。
// 空名称不报错，日志中会显示 service=""，建议传有意义的名称。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.logService(slog.LevelDebug, "service starting", name, nil)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.logService(slog.LevelWarn, "service exited with error", name, err)
		} else {
			g.logService(slog.LevelDebug, "service stopped", name, nil)
		}
		return err
	})
}

// logService 输出带组名和服务名的生命周期日志。
func (g *Group) logService(level slog.Level, msg, service string, err error) {
	args := []any{
		slog.String("group", g.opts.name),
		slog.String("service", service),
	}
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	g.opts.logger.Log(context.Background(), level, msg, args...)
}

// Wait 阻塞直到所有 goroutine 结束，返回第一个非 nil 错误。
//
// context.Canceled 的处理规则：
//   - 取消来自 Group 自身（Cancel 或信号）时返回显式 cause，
//     没有显式 cause 的普通取消返回 nil；
//   - 取消来自服务内部（服务自己返回 context.Canceled）时原样返回。
//
// 即使所有服务都返回 nil，Cancel(cause) 设置的退出原因仍会被返回，
// 调用方总能拿到退出原因做分类处理。
func (g *Group) Wait() error {
	// 设计决策: CancelCauseFunc 幂等，已 Cancel 过则此处为空操作。
	// 用 defer 保证 cause 判定完成后才释放 context 资源。
	defer g.cancel(nil)

	g.opts.logger.Debug("waiting for services",
		slog.String("group", g.opts.name),
	)

	err := g.eg.Wait()

	g.opts.logger.Debug("all services stopped",
		slog.String("group", g.opts.name),
	)

	// 取消来源用 causeCtx 判断，而不是 errgroup 的 ctx：
	// causeCtx 未取消却收到 context.Canceled，说明是服务内部产生的。
	switch {
	case errors.Is(err, context.Canceled):
		if g.causeCtx.Err() == nil {
			return err
		}
		return g.exitCause()
	case err == nil:
		// 服务全部正常返回时仍可能有显式 Cancel(cause)，
		// 比如 Cancel(customErr) 后服务返回 nil 而非 ctx.Err()。
		if g.causeCtx.Err() != nil {
			return g.exitCause()
		}
	}

	return err
}

// exitCause 返回显式取消原因；普通取消（cause 就是 context.Canceled）返回 nil。
func (g *Group) exitCause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 主动取消所有 goroutine。
//
// cause 会成为 context 的取消原因，并由 Wait() 返回；cause 为 nil 时
// Wait() 返回 nil。
//
// cause 不要包装 context.Canceled（如 fmt.Errorf("...: %w", context.Canceled)），
// 那样会被 Wait() 当作普通取消过滤掉。有语义的退出原因应使用独立错误类型，
// 比如 SignalError 或自定义业务错误。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// ----------------------------------------------------------------------------
// 便捷函数
// ----------------------------------------------------------------------------

// runGroup 承载 Run 系列便捷函数的公共流程：建组、挂信号监听、注册服务、等待。
func runGroup(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		g.Go(g.watchSignals)
	}

	setup(g)
	return g.Wait()
}

// watchSignals 监听系统信号，收到后以 *SignalError 为原因取消整组。
// 测试可通过 withTestSigChan 注入信号，避免向进程发送真实信号。
func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	// 设计决策: 空列表与 nil 等价，都回退到默认信号集。
	// signal.Notify 不带信号参数会订阅全部信号，这不是调用方想要的；
	// 真正要关掉信号处理应使用 WithoutSignalHandler。
	if len(signals) == 0 {
		signals = DefaultSignals()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-testSigChan(ctx):
	case sig = <-sigCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info("received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
	return nil
}

// Run 是最常用的启动模式：监听信号 + 运行服务。
//
// 收到 SIGHUP/SIGINT/SIGTERM/SIGQUIT 时 ctx 被取消，所有服务应优雅退出，
// Run 返回 *SignalError 表明信号退出。
//
// 示例：
//
//	err := xrun.Run(context.Background(), func(ctx context.Context) error {
//	    w, err := xconf.Watch(cfg, onReload)
//	    if err != nil {
//	        return err
//	    }
//	    defer w.Stop()
//	    w.Start()
//	    <-ctx.Done()
//	    return ctx.Err()
//	})
//	if errors.Is(err, xrun.ErrSignal) {
//	    log.Println("received signal, shutting down")
//	}
//
// 具备 Serve/Shutdown 方法的服务器（如调试服务器）推荐用 [Server]
// 辅助函数包装，它处理了优雅关闭和错误传播。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，但支持配置选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			g.Go(svc)
		}
	})
}

// ----------------------------------------------------------------------------
// Service 接口
// ----------------------------------------------------------------------------

// Service 是可被统一管理的服务。
type Service interface {
	// Run 启动服务并阻塞，ctx 取消后应优雅退出。
	Run(ctx context.Context) error
}

// ServiceFunc 把函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service 接口。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunServices 运行多个 Service，监听信号并协调关闭。
//
// 普通函数可用 ServiceFunc 适配：
//
//	svc := xrun.ServiceFunc(func(ctx context.Context) error { ... })
//
// 示例：
//
//	err := xrun.RunServices(ctx,
//	    debugServer,
//	    auditWriter,
//	    configWatcher,
//	)
func RunServices(ctx context.Context, services ...Service) error {
	return RunServicesWithOptions(ctx, nil, services...)
}

// RunServicesWithOptions 与 RunServices 相同，但支持配置选项。
//
// 示例：
//
//	err := xrun.RunServicesWithOptions(ctx, []xrun.Option{
//	    xrun.WithName("lockkitd"),
//	    xrun.WithSignals([]os.Signal{syscall.SIGINT, syscall.SIGTERM}),
//	}, debugServer, auditWriter)
func RunServicesWithOptions(ctx context.Context, opts []Option, services ...Service) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			if svc == nil {
				g.Go(func(ctx context.Context) error { return ErrNilService })
				continue
			}
			g.Go(svc.Run)
		}
	})
}

// ----------------------------------------------------------------------------
// Server 辅助
// ----------------------------------------------------------------------------

// Server 把具备 Serve/Shutdown 方法的服务器包装为支持优雅关闭的服务函数。
//
// Serve 应阻塞运行，并在 Shutdown 关闭监听器后返回包装 net.ErrClosed 的
// 错误（被关闭的监听器从 Accept 返回的正是这种错误），Server 将其视为
// 正常关闭。
//
// shutdownTimeout 为 0 或负数表示不限时，Shutdown 会等所有在途会话结束
// 才返回；需要限制等待时传一个较短的超时。
//
// 示例：
//
//	dbg, _ := xdbg.NewServer(xdbg.WithSocketPath(path))
//	err := xrun.Run(ctx, xrun.Server(dbg, 5*time.Second))
func Server(server ServerInterface, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}
		// shutdown 结果经 buffered channel 传回，goroutine 不会因无人接收而泄漏。
		shutdownErrCh := make(chan error, 1)
		// serveDone 通知 shutdown goroutine：Serve 已返回，
		// 外部关闭或启动失败场景下不要再等 ctx。
		serveDone := make(chan struct{})

		go func() {
			select {
			case <-ctx.Done():
				shutdownCtx := context.Background()
				if shutdownTimeout > 0 {
					var cancel context.CancelFunc
					shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
					defer cancel()
				}
				shutdownErrCh <- server.Shutdown(shutdownCtx)
			case <-serveDone:
				// Serve 已自行返回，无需 Shutdown。
			}
		}()

		err := server.Serve()
		if errors.Is(err, net.ErrClosed) {
			// 设计决策: 三路 select 区分关闭来源。
			// shutdownErrCh 有值说明 ctx 驱动的关闭已完成；ctx.Done() 已关闭
			// 说明关闭进行中，等结果；都不满足则是外部直接调用了
			// Shutdown/Close，通知 goroutine 退出并按正常关闭处理。
			select {
			case shutdownErr := <-shutdownErrCh:
				return shutdownErr
			case <-ctx.Done():
				return <-shutdownErrCh
			default:
				close(serveDone)
				return nil
			}
		}
		// 启动失败等其他错误，通知 goroutine 退出。
		close(serveDone)
		return err
	}
}

// ServerInterface 是可优雅关闭的服务器。xdbg.Server 满足此接口；
// 导出以便自定义实现和测试替身。
//
// 设计决策: 名字带 Interface 后缀是因为 Server 已被同名便捷函数占用。
type ServerInterface interface {
	Serve() error
	Shutdown(ctx context.Context) error
}
