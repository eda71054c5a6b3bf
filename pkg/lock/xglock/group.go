package xglock

import (
	"sync/atomic"
	"time"

	"github.com/omeyang/lockkit/pkg/util/xgoid"
)

// unowned 是组锁空闲时锁字的哨兵值。
// goroutine id 从 1 开始分配，0 永远不会是合法持有者。
const unowned uint64 = 0

// Group 是一把组级互斥锁，组内所有成员共享这一把锁。
//
// 通过 [NewGroup] 创建，通过 [Spawn] 登记成员。首次使用后不可复制。
type Group struct {
	// owner 是锁字：unowned 表示空闲，否则为持有者的 goroutine id。
	// 它同时是 Parker 的等待字。
	owner atomic.Uint64

	// depth 是同一持有者的嵌套获取深度。
	// owner == unowned 当且仅当 depth == 0。
	depth guarded

	// lockedAt 记录最外层获取的时刻，仅在接入 Recorder 时维护。
	// 写入与读取均由令牌串行化。
	lockedAt time.Time

	name          string
	parker        Parker
	rec           Recorder
	slowThreshold time.Duration
	onSlowAcquire func(SlowAcquire)

	stats groupStats
}

// groupStats 是锁事件计数，仅供诊断快照读取。
type groupStats struct {
	acquires  atomic.Uint64
	reentrant atomic.Uint64
	contended atomic.Uint64
	waitNanos atomic.Uint64
}

// Recorder 接收锁事件，用于接入指标系统。
// xmetrics 包提供基于 OpenTelemetry 的实现；实现必须并发安全。
type Recorder interface {
	// RecordAcquire 在每次成功获取后调用。
	// wait 是从开始竞争到拿到锁的耗时，重入与无竞争路径恒为 0。
	RecordAcquire(group string, wait time.Duration, reentrant, contended bool)

	// RecordRelease 在锁字被真正释放（嵌套深度归零）时调用。
	// held 是从最外层获取到本次释放的持锁时长。
	RecordRelease(group string, held time.Duration)
}

// SlowAcquire 描述一次超过阈值的锁等待，见 [WithSlowAcquire]。
type SlowAcquire struct {
	// Group 是组名，未命名组为空串。
	Group string
	// Goroutine 是等待者的 goroutine id。
	Goroutine uint64
	// Wait 是本次获取的实际等待时长。
	Wait time.Duration
}

// Stats 是组锁的累计事件计数。
// 各字段独立原子读取，彼此之间可能存在瞬时不一致，仅用于诊断。
type Stats struct {
	// Acquires 是成功获取总数（含重入）。
	Acquires uint64
	// Reentrant 是其中走重入快速路径的次数。
	Reentrant uint64
	// Contended 是发生过竞争（至少一次 CAS 失败）的获取次数。
	Contended uint64
	// WaitTotal 是竞争获取的累计等待时长。
	WaitTotal time.Duration
}

// GroupInfo 是组的诊断快照。
// 各字段独立读取，不保证时点一致；Owner 与 Depth 在读取瞬间
// 就可能已经过期，仅用于调试展示。
type GroupInfo struct {
	Name   string
	Locked bool
	// Owner 是持有者 goroutine id，空闲时为 0。
	Owner uint64
	// Depth 是当前嵌套深度。
	Depth uint64
	Stats Stats
}

// NewGroup 创建一个新的组。
// 之后在组上 [Spawn] 出的所有成员共享同一把互斥锁。
func NewGroup(opts ...Option) *Group {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Group{
		name:          o.name,
		parker:        o.parker,
		rec:           o.rec,
		slowThreshold: o.slowThreshold,
		onSlowAcquire: o.onSlowAcquire,
	}
}

// Name 返回组名，未命名组返回空串。
func (g *Group) Name() string {
	return g.name
}

// Stats 返回锁事件计数的即时快照。
func (g *Group) Stats() Stats {
	return Stats{
		Acquires:  g.stats.acquires.Load(),
		Reentrant: g.stats.reentrant.Load(),
		Contended: g.stats.contended.Load(),
		WaitTotal: time.Duration(g.stats.waitNanos.Load()),
	}
}

// Info 返回组的诊断快照。
func (g *Group) Info() GroupInfo {
	owner := g.owner.Load()
	return GroupInfo{
		Name:   g.name,
		Locked: owner != unowned,
		Owner:  owner,
		Depth:  g.depth.peek(),
		Stats:  g.Stats(),
	}
}

// lock 获取组锁并返回本次获取的令牌。
//
// 持有者重复进入走重入快速路径：锁字已是自己的 id，只递增深度。
// 否则以 CAS(unowned → 自身 id) 竞争；失败即在锁字上挂起，等待
// 持有者释放后被唤醒重试。被唤醒者与新来者之间无任何顺序承诺。
func (g *Group) lock() *token {
	self := xgoid.ID()

	if g.owner.Load() == self {
		t := &token{g: g, gid: self}
		g.depth.add(t, 1)
		g.stats.acquires.Add(1)
		g.stats.reentrant.Add(1)
		if g.rec != nil {
			g.rec.RecordAcquire(g.name, 0, true, false)
		}
		return t
	}

	var start time.Time
	contended := false
	for !g.owner.CompareAndSwap(unowned, self) {
		if !contended {
			contended = true
			start = time.Now()
		}
		// CAS 不返回失败时观察到的值，补读一次：
		// 已经空闲则立即重试，否则以观察值为基准挂起。
		observed := g.owner.Load()
		if observed == unowned {
			continue
		}
		g.parker.Park(&g.owner, observed)
	}

	t := &token{g: g, gid: self}
	g.depth.add(t, 1)
	g.stats.acquires.Add(1)

	var wait time.Duration
	if contended {
		wait = time.Since(start)
		g.stats.contended.Add(1)
		g.stats.waitNanos.Add(uint64(wait))
	}
	if g.rec != nil {
		g.lockedAt = time.Now()
		g.rec.RecordAcquire(g.name, wait, false, contended)
	}
	if g.onSlowAcquire != nil && wait >= g.slowThreshold {
		g.onSlowAcquire(SlowAcquire{Group: g.name, Goroutine: self, Wait: wait})
	}
	return t
}

// token 代表一次成功的组锁获取。
// 每次获取对应一枚令牌；令牌由获取它的 goroutine 释放恰好一次。
// 令牌同时是组内计数器变更的能力凭证，见 [guarded]。
type token struct {
	g   *Group
	gid uint64
}

// holderCheck 校验调用者就是令牌的获取者。
// 守卫跨 goroutine 传递后释放属于契约违规，直接中止。
func (t *token) holderCheck() {
	if xgoid.ID() != t.gid {
		panic("xglock: lock released by a goroutine other than its acquirer")
	}
}

// release 归还令牌：深度减一，归零时释放锁字并唤醒一个等待者。
func (t *token) release() {
	g := t.g
	if g.depth.add(t, ^uint64(0)) != 0 {
		return
	}

	var held time.Duration
	if g.rec != nil {
		held = time.Since(g.lockedAt)
	}

	// 原子 Store 提供 release 语义：此前对组内受保护状态的全部
	// 写入，对下一个通过 CAS 拿到锁字的 goroutine 可见。
	// 唤醒必须发生在释放之后，被唤醒者才有机会观察到空闲的锁字。
	g.owner.Store(unowned)
	g.parker.Wake(&g.owner)

	if g.rec != nil {
		g.rec.RecordRelease(g.name, held)
	}
}

// guarded 是由组锁令牌串行化变更的计数器。
//
// 变更方法以 *token 作为能力凭证：不持有令牌的代码在类型上就拿不到
// 变更入口。底层采用原子表示，仅为诊断快照提供无撕裂读取（peek），
// 原子性本身不参与锁协议。
type guarded struct {
	v atomic.Uint64
}

// get 读取计数，要求持有令牌。
func (c *guarded) get(_ *token) uint64 {
	return c.v.Load()
}

// set 写入计数，要求持有令牌。
func (c *guarded) set(_ *token, n uint64) {
	c.v.Store(n)
}

// add 增减计数并返回新值，要求持有令牌。递减传 ^uint64(0)。
func (c *guarded) add(_ *token, delta uint64) uint64 {
	return c.v.Add(delta)
}

// peek 无锁读取计数，仅用于诊断快照，结果可能随时过期。
func (c *guarded) peek() uint64 {
	return c.v.Load()
}
