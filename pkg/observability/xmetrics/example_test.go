package xmetrics_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/lockkit/pkg/lock/xglock"
	"github.com/omeyang/lockkit/pkg/observability/xmetrics"
)

func ExampleNewOTelObserver() {
	obs, err := xmetrics.NewOTelObserver()
	if err != nil {
		panic(err)
	}

	// 推荐使用闭包 defer 捕获业务错误，确保 span 正确记录错误状态。
	// 若使用 defer span.End(xmetrics.Result{})，则始终记录 StatusOK。
	var cmdErr error
	ctx, span := xmetrics.Start(context.Background(), obs, xmetrics.SpanOptions{
		Component: "xdbg",
		Operation: "locks",
		Kind:      xmetrics.KindServer,
		Attrs:     []xmetrics.Attr{xmetrics.String("session", "sess-1")},
	})
	defer func() { span.End(xmetrics.Result{Err: cmdErr}) }()

	_ = ctx
	fmt.Println("span created")
	// Output: span created
}

func ExampleNewLockRecorder() {
	rec, err := xmetrics.NewLockRecorder(
		xmetrics.WithWaitBuckets(0.000001, 0.00001, 0.0001, 0.001, 0.01),
	)
	if err != nil {
		panic(err)
	}

	g := xglock.NewGroup(xglock.WithName("sessions"), xglock.WithRecorder(rec))
	m := xglock.Spawn(g, 0)

	w := m.Write()
	w.Set(42)
	w.Unlock()

	fmt.Println("lock events recorded")
	// Output: lock events recorded
}

func ExampleStart_nilObserver() {
	// nil observer 安全返回 NoopSpan，零开销
	ctx, span := xmetrics.Start(context.Background(), nil, xmetrics.SpanOptions{
		Component: "test",
		Operation: "skip",
	})
	span.End(xmetrics.Result{})

	_ = ctx
	fmt.Println("noop span ended")
	// Output: noop span ended
}

func ExampleResult_withError() {
	obs := xmetrics.NoopObserver{}
	_, span := obs.Start(context.Background(), xmetrics.SpanOptions{
		Component: "xdbg",
		Operation: "lock",
	})

	err := errors.New("unknown group")
	// Err 非 nil 时自动推导 StatusError
	span.End(xmetrics.Result{Err: err})

	fmt.Println("error recorded")
	// Output: error recorded
}

func ExampleKind_String() {
	fmt.Println(xmetrics.KindServer)
	fmt.Println(xmetrics.KindClient)
	// Output:
	// Server
	// Client
}
