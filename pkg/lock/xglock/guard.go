package xglock

import "fmt"

// ReadGuard 是成员只读访问的 RAII 句柄，由 [Member.Read] 创建。
//
// 必须由创建它的 goroutine 调用 Unlock 恰好一次，通常配合 defer
// 使用（panic 展开时同样会释放）。调用方不得通过只读句柄修改值，
// Go 的类型系统无法表达 const 指针，这一点只能由契约保证。
type ReadGuard[T any] struct {
	m   *Member[T]
	tok *token
}

// Value 返回受保护值的指针，仅在 Unlock 之前有效。
// Unlock 之后调用 panic。
func (g *ReadGuard[T]) Value() *T {
	if g.m == nil {
		panic("xglock: read guard used after release")
	}
	return &g.m.value
}

// Unlock 释放只读访问。
// 重复调用 panic；由非获取者 goroutine 调用 panic。
func (g *ReadGuard[T]) Unlock() {
	if g.m == nil {
		panic("xglock: read guard released twice")
	}
	t := g.tok
	t.holderCheck()
	// 成员计数先于组锁令牌释放，计数变更始终处于锁的保护之内。
	g.m.access.add(t, ^uint64(0))
	g.m = nil
	g.tok = nil
	t.release()
}

// String 透传受保护值的文本表示，便于日志与调试输出。
func (g *ReadGuard[T]) String() string {
	return fmt.Sprint(*g.Value())
}

// WriteGuard 是成员独占写访问的 RAII 句柄，由 [Member.Write] 创建。
//
// 释放契约与 [ReadGuard] 相同：由创建它的 goroutine 调用 Unlock
// 恰好一次。
type WriteGuard[T any] struct {
	m   *Member[T]
	tok *token
}

// Value 返回受保护值的指针，仅在 Unlock 之前有效。
// Unlock 之后调用 panic。
func (g *WriteGuard[T]) Value() *T {
	if g.m == nil {
		panic("xglock: write guard used after release")
	}
	return &g.m.value
}

// Set 以 v 替换受保护值，等价于 *g.Value() = v。
func (g *WriteGuard[T]) Set(v T) {
	*g.Value() = v
}

// Unlock 释放独占写访问。
// 重复调用 panic；由非获取者 goroutine 调用 panic。
func (g *WriteGuard[T]) Unlock() {
	if g.m == nil {
		panic("xglock: write guard released twice")
	}
	t := g.tok
	t.holderCheck()
	g.m.access.set(t, 0)
	g.m = nil
	g.tok = nil
	t.release()
}

// String 透传受保护值的文本表示。
func (g *WriteGuard[T]) String() string {
	return fmt.Sprint(*g.Value())
}

// 编译期接口检查。
var (
	_ fmt.Stringer = (*ReadGuard[int])(nil)
	_ fmt.Stringer = (*WriteGuard[int])(nil)
)
