package xglock

const (
	// writerActive 是成员访问计数的写者哨兵。
	writerActive = ^uint64(0)
	// maxReaders 是读者数上限：再多一个读者就会与写者哨兵混淆。
	maxReaders = writerActive - 1
)

// Member 是组的一个受保护成员。
//
// 对任意成员的任意加锁都会锁住整个组；同一 goroutine 在持组期间可以
// 继续对同组其他成员加锁，不会自我死锁。成员各自独立记录读写访问：
// 同一成员上读读共存，读写、写写冲突 panic。
type Member[T any] struct {
	group *Group

	// access 是成员访问计数：0 空闲，1..maxReaders 为读者数，
	// writerActive 为写者哨兵。变更由组锁令牌串行化。
	access guarded

	value T
}

// Spawn 在组 g 上登记一个受保护值，返回其成员句柄。
// g 为 nil 时 panic。
func Spawn[T any](g *Group, value T) *Member[T] {
	if g == nil {
		panic("xglock: nil Group")
	}
	return &Member[T]{group: g, value: value}
}

// Read 以只读访问锁住该成员，阻塞直到拿到组锁。
//
// 同一持有者可以嵌套取出多个只读访问。该成员上有活跃写者时 panic：
// 组锁已挡住其他 goroutine，写者只能是当前 goroutine 自己，
// 等待永远不会成功。
func (m *Member[T]) Read() *ReadGuard[T] {
	t := m.group.lock()
	switch n := m.access.get(t); n {
	case writerActive:
		t.release()
		panic("xglock: attempt to acquire the read lock while there is an active write lock")
	case maxReaders:
		// 正常使用不可达：读者只能嵌套产生，栈深度上限远在此之前。
		t.release()
		panic("xglock: maximum number of active readers has been reached")
	default:
		m.access.set(t, n+1)
	}
	return &ReadGuard[T]{m: m, tok: t}
}

// Write 以独占写访问锁住该成员，阻塞直到拿到组锁。
//
// 该成员上已有任何活跃读者或写者时 panic，理由同 [Member.Read]：
// 冲突方只能是当前 goroutine 自己。
func (m *Member[T]) Write() *WriteGuard[T] {
	t := m.group.lock()
	if n := m.access.get(t); n != 0 {
		t.release()
		panic("xglock: attempt to acquire the write lock while there are active readers or writers")
	}
	m.access.set(t, writerActive)
	return &WriteGuard[T]{m: m, tok: t}
}

// Unlocked 绕过锁直接返回底层值的指针。
//
// 仅当调用方对该成员拥有唯一且未共享的所有权时才是安全的，典型场景
// 是 Spawn 之后、发布给其他 goroutine 之前的初始化阶段。发布之后
// 继续使用该指针会绕过全部同步保护。
func (m *Member[T]) Unlocked() *T {
	return &m.value
}

// Group 返回成员所属的组。
func (m *Member[T]) Group() *Group {
	return m.group
}
