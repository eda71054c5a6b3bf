package xlog_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/omeyang/lockkit/pkg/observability/xlog"
)

func BenchmarkLoggerInfo(b *testing.B) {
	logger, cleanup, err := xlog.New().
		SetOutput(io.Discard).
		SetLevel(xlog.LevelInfo).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = cleanup() })

	ctx := context.Background()
	b.ResetTimer()

	for b.Loop() {
		logger.Info(ctx, "acquired", xlog.Group("cache"), xlog.Goroutine(7))
	}
}

func BenchmarkLoggerInfoDisabled(b *testing.B) {
	logger, cleanup, err := xlog.New().
		SetOutput(io.Discard).
		SetLevel(xlog.LevelError).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = cleanup() })

	ctx := context.Background()
	b.ResetTimer()

	for b.Loop() {
		logger.Info(ctx, "skipped", xlog.Group("cache"))
	}
}

func BenchmarkLoggerLazyDisabled(b *testing.B) {
	logger, cleanup, err := xlog.New().
		SetOutput(io.Discard).
		SetLevel(xlog.LevelError).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = cleanup() })

	ctx := context.Background()
	b.ResetTimer()

	for b.Loop() {
		logger.Debug(ctx, "skipped",
			xlog.LazyDuration("wait", func() time.Duration { return time.Second }))
	}
}

func BenchmarkLoggerStack(b *testing.B) {
	logger, cleanup, err := xlog.New().
		SetOutput(io.Discard).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = cleanup() })

	ctx := context.Background()
	b.ResetTimer()

	for b.Loop() {
		logger.Stack(ctx, "fault", xlog.Group("cache"))
	}
}

func BenchmarkLoggerWith(b *testing.B) {
	logger, cleanup, err := xlog.New().
		SetOutput(io.Discard).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = cleanup() })

	b.ResetTimer()
	for b.Loop() {
		_ = logger.With(xlog.Group("cache"))
	}
}
