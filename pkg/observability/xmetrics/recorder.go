package xmetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 设计决策: 指标前缀使用 "lockkit.*"，与 OTel instrumentation scope
// （github.com/omeyang/lockkit/xmetrics）对应。如需统一命名空间，
// 应在采集端（Prometheus relabel）处理，而非在代码里层层拼接前缀。
const (
	// metricLockAcquireTotal 锁获取次数计数器
	metricLockAcquireTotal = "lockkit.lock.acquire.total"
	// metricLockAcquireWait 竞争等待耗时直方图
	metricLockAcquireWait = "lockkit.lock.acquire.wait"
	// metricLockHoldDuration 锁持有时长直方图
	metricLockHoldDuration = "lockkit.lock.hold.duration"
)

const (
	attrGroup     = "group"
	attrReentrant = "reentrant"
	attrContended = "contended"
)

// defaultWaitBuckets 等待/持有直方图的默认桶边界（秒）。
// 锁等待集中在微秒到毫秒区间，OTel SDK 的默认桶面向请求延迟，
// 对细粒度争用几乎全部落在第一个桶里。
var defaultWaitBuckets = []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1}

// LockRecorder 把锁事件写入 OpenTelemetry 指标。
//
// 它实现 xglock 的 Recorder 接口，通过 xglock.WithRecorder 挂到组上：
//
//	rec, err := xmetrics.NewLockRecorder()
//	g := xglock.NewGroup(xglock.WithName("sessions"), xglock.WithRecorder(rec))
//
// 所有方法对 nil 接收者安全，不收集指标时可直接传 nil。
type LockRecorder struct {
	acquireTotal metric.Int64Counter
	acquireWait  metric.Float64Histogram
	holdDuration metric.Float64Histogram
	noGroupLabel bool
}

// NewLockRecorder 创建锁指标收集器。
//
// 支持的选项：[WithInstrumentationName]、[WithMeterProvider]、
// [WithWaitBuckets]、[WithoutGroupLabel]。[WithTracerProvider]
// 仅 [NewOTelObserver] 使用，此处忽略。
func NewLockRecorder(opts ...Option) (*LockRecorder, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricLockAcquireTotal,
		metric.WithDescription("锁获取次数"),
		metric.WithUnit("{acquire}"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	buckets := cfg.waitBuckets
	if buckets == nil {
		buckets = defaultWaitBuckets
	}

	wait, err := meter.Float64Histogram(
		metricLockAcquireWait,
		metric.WithDescription("竞争获取的等待耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	hold, err := meter.Float64Histogram(
		metricLockHoldDuration,
		metric.WithDescription("锁持有时长"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &LockRecorder{
		acquireTotal: total,
		acquireWait:  wait,
		holdDuration: hold,
		noGroupLabel: cfg.noGroupLabel,
	}, nil
}

// RecordAcquire 记录一次成功获取。
//
// 计数器在每次获取上递增，并带 reentrant/contended 标签；
// 等待直方图只在竞争获取上记录，其计数即竞争获取数。
// 重入与无竞争路径的 wait 恒为 0，记进直方图只会淹没分位数。
func (r *LockRecorder) RecordAcquire(group string, wait time.Duration, reentrant, contended bool) {
	if r == nil {
		return
	}

	ctx := context.Background()

	attrs := make([]attribute.KeyValue, 0, 3)
	if !r.noGroupLabel {
		attrs = append(attrs, attribute.String(attrGroup, group))
	}
	attrs = append(attrs,
		attribute.Bool(attrReentrant, reentrant),
		attribute.Bool(attrContended, contended),
	)
	r.acquireTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if contended {
		var waitAttrs []attribute.KeyValue
		if !r.noGroupLabel {
			waitAttrs = []attribute.KeyValue{attribute.String(attrGroup, group)}
		}
		r.acquireWait.Record(ctx, wait.Seconds(), metric.WithAttributes(waitAttrs...))
	}
}

// RecordRelease 记录一次真正的释放（嵌套深度归零）。
func (r *LockRecorder) RecordRelease(group string, held time.Duration) {
	if r == nil {
		return
	}

	ctx := context.Background()

	var attrs []attribute.KeyValue
	if !r.noGroupLabel {
		attrs = []attribute.KeyValue{attribute.String(attrGroup, group)}
	}
	r.holdDuration.Record(ctx, held.Seconds(), metric.WithAttributes(attrs...))
}
