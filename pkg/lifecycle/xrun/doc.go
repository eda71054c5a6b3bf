// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 概述
//
// xrun 在官方扩展库 [errgroup] 之上封装了：
//   - 一组服务的并发运行与协调关闭
//   - 系统信号处理（SIGINT、SIGTERM 等）
//   - 生命周期事件的结构化日志
//   - 具备 Serve/Shutdown 方法的服务器（如调试服务器）的接入
//
// # 核心概念
//
// 协调完全走 context：任一服务出错或收到终止信号时 context 被取消，
// 每个服务监听 ctx.Done() 并自行优雅退出。
//
// # 快速开始
//
// 最小用法：
//
//	err := xrun.Run(context.Background(),
//	    func(ctx context.Context) error {
//	        <-ctx.Done()
//	        return ctx.Err()
//	    },
//	)
//
// 接入调试服务器：
//
//	dbg, _ := xdbg.NewServer(xdbg.WithSocketPath("/tmp/app.sock"))
//	err := xrun.Run(ctx, xrun.Server(dbg, 5*time.Second))
//
// 多服务用 Group 管理：
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("lockkit"))
//
//	g.Go(xrun.Server(dbg, 5*time.Second))
//
//	g.Go(func(ctx context.Context) error {
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return ctx.Err()
//	        case ev := <-events:
//	            process(ev)
//	        }
//	    }
//	})
//
//	if err := g.Wait(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Service 接口
//
// 带 Run(ctx) 方法的类型可交给 RunServices 统一托管：
//
//	type AuditWriter struct{}
//
//	func (w *AuditWriter) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return ctx.Err()
//	}
//
//	err := xrun.RunServices(ctx, &AuditWriter{}, configWatcher)
//
// # 与 Kubernetes 配合
//
// Kubernetes 终止 Pod 前会发送 SIGTERM，xrun.Run 默认监听并触发优雅关闭。
// 关闭逻辑应在 terminationGracePeriodSeconds（默认 30s）内完成，
// 长任务应定期检查 ctx.Done()。
//
// # 错误处理
//
// Wait() 的返回规则：
//   - 服务返回非 nil 且非 context.Canceled 的错误时原样返回
//   - context.Canceled 按取消来源处理：组被取消（Cancel 或父 context）时
//     过滤掉，换成显式 cause 或 nil；服务内部自己产生的不过滤
//   - 组被取消且有显式 cause（如 SignalError）时返回该 cause
//
// 信号退出的判定：
//
//	err := xrun.Run(ctx, myService)
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    log.Printf("received signal: %v", sigErr.Signal)
//	}
//
// # 设计决策
//
// 1. 取消原因经 context.WithCancelCause 保留，Wait 据此区分
//    "被要求关闭"和"服务内部取消"两种 context.Canceled。
//
// 2. 沿用 errgroup 的单错误语义：Wait 只返回第一个非 nil 错误，
//    其余服务通过 context 取消感知到故障。需要逐个错误时在服务内记日志。
//
// 3. 不提供 OnShutdown 之类的全局回调注册。关闭逻辑内聚在各服务的
//    ctx.Done() 分支里，省掉回调排序和错误传播的复杂度。
//
// 4. Run 系列函数自动注册信号监听（默认 SIGHUP、SIGINT、SIGTERM、
//    SIGQUIT），收到信号时 Cancel(&SignalError{Signal: sig})。
//    WithSignals 可自定义列表，WithoutSignalHandler 可整体关闭；
//    直接用 NewGroup 则完全不含信号处理。SIGUSR1 刻意不在默认列表中，
//    调试服务器用它做开关切换，与生命周期信号互不干扰。
//
// 5. DefaultSignals() 每次返回新切片，调用方改不坏默认配置。
//
// 6. Server 辅助函数用 buffered channel 回传 Shutdown() 的结果，
//    Serve 以包装 net.ErrClosed 的错误正常返回时等待 Shutdown 完成，
//    关闭阶段的超时错误不会被吞掉。
//
// 7. Ticker 不内置慢执行告警。需要度量 tick 耗时的话在 fn 里用
//    xmetrics.Start 记录。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
