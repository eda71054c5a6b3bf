package xpool

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
)

// 参数有效范围。超出范围返回错误而非静默修正。
const (
	maxWorkers   = 65536
	maxQueueSize = 16 * 1024 * 1024
)

// Pool 是一个泛型 worker pool 实现。
// 用于异步执行任务，支持优雅关闭、超时关闭和 panic 恢复。
type Pool[T any] struct {
	opts    options
	workers int
	handler func(T)

	queue    chan T
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// 编译期确认关闭契约。
var _ io.Closer = (*Pool[int])(nil)

// New 创建并启动 worker pool。
//
// 参数：
//   - workers: worker 数量，有效范围 [1, 65536]
//   - queueSize: 任务队列大小，有效范围 [1, 16777216]
//   - handler: 任务处理函数，不能为 nil
//
// 创建后 worker 即开始消费队列，无需手动启动。
func New[T any](workers, queueSize int, handler func(T), opts ...Option) (*Pool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d (valid range [1, %d])", ErrInvalidWorkers, workers, maxWorkers)
	}
	if queueSize < 1 || queueSize > maxQueueSize {
		return nil, fmt.Errorf("%w: %d (valid range [1, %d])", ErrInvalidQueueSize, queueSize, maxQueueSize)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p := &Pool[T]{
		opts:    o,
		workers: workers,
		handler: handler,
		queue:   make(chan T, queueSize),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	return p, nil
}

// worker 只从 queue 中读取任务，不检查 stopped 信号。
// 这确保关闭时能处理完队列中的剩余任务（优雅关闭）。
func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
	}
}

// run 执行单个任务并捕获 panic。panic 的任务不会被重试。
func (p *Pool[T]) run(task T) {
	defer func() {
		if r := recover(); r != nil {
			attrs := []any{"panic", r, "stack", string(debug.Stack())}
			if p.opts.name != "" {
				attrs = append(attrs, "pool", p.opts.name)
			}
			if p.opts.logTaskValue {
				attrs = append(attrs, "task", fmt.Sprintf("%+v", task))
			} else {
				// 默认仅记录类型，避免任务值中的敏感信息进入日志
				attrs = append(attrs, "task_type", fmt.Sprintf("%T", task))
			}
			p.opts.logger.Error("xpool: worker panic recovered", attrs...)
		}
	}()
	p.handler(task)
}

// Submit 提交任务。非阻塞：队列满返回 [ErrQueueFull]，
// pool 已关闭返回 [ErrPoolStopped]。
func (p *Pool[T]) Submit(task T) (err error) {
	// 捕获 Close 和 Submit 并发时可能的 send on closed channel panic。
	// 窗口在 Close 关闭 p.stopped 后、关闭 p.queue 前，
	// Submit 的 select 恰好选中了 p.queue <- task 分支。
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolStopped
		}
	}()

	select {
	case <-p.stopped:
		return ErrPoolStopped
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 关闭 pool 并无限等待队列中所有剩余任务处理完成。
// 等价于 Shutdown(context.Background())。不可在 handler 内调用。
func (p *Pool[T]) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown 关闭 pool，等待剩余任务完成或 ctx 到期。
// ctx 到期后立即返回 ctx 的错误，残留 worker 仍在后台消费剩余任务，
// 调用方可通过 [Pool.Done] 等待它们最终退出。
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	p.stopOnce.Do(func() {
		// 先拒绝新任务，再关闭队列让 worker 退出循环
		close(p.stopped)
		close(p.queue)
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 返回在所有 worker 退出后关闭的 channel。
// 用于 Shutdown 超时返回后等待残留 worker 最终完成。
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Workers 返回 worker 数量。
func (p *Pool[T]) Workers() int {
	return p.workers
}

// QueueSize 返回队列容量。
func (p *Pool[T]) QueueSize() int {
	return cap(p.queue)
}
