// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口：Observer/Span/Attr，
// 调用方只依赖接口；具体实现可替换。
// 默认实现基于 OpenTelemetry，兼容主流可观测栈。
//
// # 使用示例
//
// 调试服务器用 Observer 包裹每条命令的执行：
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xdbg",
//		Operation: "locks",
//		Kind:      xmetrics.KindServer,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// 锁事件经 [LockRecorder] 进入指标，挂到组上即可：
//
//	rec, _ := xmetrics.NewLockRecorder()
//	g := xglock.NewGroup(xglock.WithName("sessions"), xglock.WithRecorder(rec))
//
// # 指标命名
//
// Observer 统一指标：
//   - lockkit.operation.total
//   - lockkit.operation.duration
//
// 统一属性：component / operation / status。
//
// LockRecorder 锁指标：
//   - lockkit.lock.acquire.total
//   - lockkit.lock.acquire.wait
//   - lockkit.lock.hold.duration
//
// 锁属性：group / reentrant / contended。
package xmetrics
