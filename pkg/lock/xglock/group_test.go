package xglock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/lockkit/pkg/util/xgoid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWriteReadRoundTrip(t *testing.T) {
	g := NewGroup()
	m := Spawn(g, 0)

	w := m.Write()
	*w.Value() = 42
	w.Unlock()

	r := m.Read()
	assert.Equal(t, 42, *r.Value())
	r.Unlock()

	// 全部释放后锁字回到空闲
	assert.Equal(t, unowned, g.owner.Load())
	assert.Zero(t, g.depth.peek())
}

func TestOwnerIsGoroutineID(t *testing.T) {
	g := NewGroup()
	m := Spawn(g, 0)

	w := m.Write()
	assert.Equal(t, xgoid.ID(), g.owner.Load())
	w.Unlock()
	assert.Equal(t, unowned, g.owner.Load())
}

func TestGroupHandoff(t *testing.T) {
	// 两个 goroutine 先后写同一成员，值按持锁顺序接力
	g := NewGroup()
	m := Spawn(g, 0)

	w := m.Write()

	done := make(chan struct{})
	go func() {
		defer close(done)
		w2 := m.Write()
		defer w2.Unlock()
		if *w2.Value() != 1 {
			t.Errorf("second writer sees %d, want 1", *w2.Value())
		}
		*w2.Value() = 2
	}()

	*w.Value() = 1
	w.Unlock()

	<-done
	r := m.Read()
	defer r.Unlock()
	assert.Equal(t, 2, *r.Value())
}

func TestMutualExclusion(t *testing.T) {
	g := NewGroup()
	m := Spawn(g, 0)

	const (
		goroutines = 32
		iters      = 200
	)

	var inCritical atomic.Int64
	var violations atomic.Int64
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iters {
				w := m.Write()
				// 临界区内任意时刻只允许一个 goroutine
				if inCritical.Add(1) != 1 {
					violations.Add(1)
				}
				*w.Value()++
				inCritical.Add(-1)
				w.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, violations.Load(), "mutual exclusion violated")
	assert.Equal(t, goroutines*iters, *m.Unlocked())
}

func TestCrossMemberSerialization(t *testing.T) {
	// 不同成员上的访问互相排斥：组内只有一把锁，读也不例外
	g := NewGroup()
	a := Spawn(g, 0)
	b := Spawn(g, 0)

	var inCritical atomic.Int64
	var violations atomic.Int64
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(even bool) {
			defer wg.Done()
			for range 200 {
				if even {
					w := a.Write()
					if inCritical.Add(1) != 1 {
						violations.Add(1)
					}
					*w.Value()++
					inCritical.Add(-1)
					w.Unlock()
				} else {
					r := b.Read()
					if inCritical.Add(1) != 1 {
						violations.Add(1)
					}
					_ = *r.Value()
					inCritical.Add(-1)
					r.Unlock()
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Zero(t, violations.Load(), "accesses on different members overlapped")
}

func TestReentrantAcrossMembers(t *testing.T) {
	g := NewGroup()
	cfg := Spawn(g, "v1")
	n := Spawn(g, 0)
	flags := Spawn(g, []string(nil))

	w := cfg.Write()
	*w.Value() = "v2"

	// 持组期间对其他成员任意嵌套加锁，不会自我死锁
	r := n.Read()
	w2 := flags.Write()
	*w2.Value() = append(*w2.Value(), "updated")
	assert.Equal(t, 0, *r.Value())
	assert.Equal(t, uint64(3), g.depth.peek())

	w2.Unlock()
	r.Unlock()
	w.Unlock()

	assert.Equal(t, unowned, g.owner.Load())
}

func TestCounterSymmetry(t *testing.T) {
	// N 次嵌套获取需要恰好 N 次释放，少一次锁都不会放开
	g := NewGroup()
	m := Spawn(g, 0)

	const n = 8
	guards := make([]*ReadGuard[int], 0, n)
	for range n {
		guards = append(guards, m.Read())
	}
	assert.Equal(t, uint64(n), g.depth.peek())
	assert.Equal(t, uint64(n), m.access.peek())

	for i := n - 1; i >= 1; i-- {
		guards[i].Unlock()
		assert.Equal(t, uint64(i), g.depth.peek())
		assert.NotEqual(t, unowned, g.owner.Load(), "lock must stay held until the last release")
	}
	guards[0].Unlock()
	assert.Equal(t, unowned, g.owner.Load())
	assert.Zero(t, m.access.peek())
}

func TestOutOfOrderRelease(t *testing.T) {
	// 守卫不要求按 LIFO 释放
	g := NewGroup()
	m := Spawn(g, 0)

	r1 := m.Read()
	r2 := m.Read()
	r1.Unlock()
	assert.NotEqual(t, unowned, g.owner.Load())
	r2.Unlock()
	assert.Equal(t, unowned, g.owner.Load())
}

func TestReleaseWakesWaiter(t *testing.T) {
	g := NewGroup()
	m := Spawn(g, 0)

	w := m.Write()

	acquired := make(chan struct{})
	go func() {
		w2 := m.Write()
		close(acquired)
		w2.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired while the lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	w.Unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter did not acquire after release")
	}
}

func TestManyWaitersAllAcquire(t *testing.T) {
	// 释放链：每次最终释放唤醒一个等待者，所有等待者最终都拿到锁
	g := NewGroup()
	m := Spawn(g, 0)

	w := m.Write()

	const waiters = 16
	var wg sync.WaitGroup
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w2 := m.Write()
			*w2.Value()++
			w2.Unlock()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	w.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every waiter acquired the lock")
	}
	assert.Equal(t, waiters, *m.Unlocked())
}

func TestStats(t *testing.T) {
	g := NewGroup(WithName("stats"))
	m := Spawn(g, 0)

	w := m.Write()
	r := Spawn(g, 1).Read() // 重入
	r.Unlock()
	w.Unlock()

	s := g.Stats()
	assert.Equal(t, uint64(2), s.Acquires)
	assert.Equal(t, uint64(1), s.Reentrant)
	assert.Zero(t, s.Contended)
}

func TestStatsContended(t *testing.T) {
	g := NewGroup()
	m := Spawn(g, 0)

	w := m.Write()
	acquired := make(chan struct{})
	go func() {
		w2 := m.Write()
		close(acquired)
		w2.Unlock()
	}()
	time.Sleep(20 * time.Millisecond)
	w.Unlock()
	<-acquired

	s := g.Stats()
	assert.Equal(t, uint64(1), s.Contended)
	assert.Positive(t, s.WaitTotal)
}

func TestInfoSnapshot(t *testing.T) {
	g := NewGroup(WithName("pipeline"))
	m := Spawn(g, 0)

	info := g.Info()
	assert.Equal(t, "pipeline", info.Name)
	assert.False(t, info.Locked)
	assert.Zero(t, info.Owner)
	assert.Zero(t, info.Depth)

	holding := make(chan uint64)
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		w := m.Write()
		holding <- xgoid.ID()
		<-release
		w.Unlock()
	}()

	gid := <-holding
	info = g.Info()
	assert.True(t, info.Locked)
	assert.Equal(t, gid, info.Owner)
	assert.Equal(t, uint64(1), info.Depth)

	close(release)
	<-done

	assert.False(t, g.Info().Locked)
}

func TestSlowAcquireCallback(t *testing.T) {
	var slow atomic.Pointer[SlowAcquire]
	g := NewGroup(
		WithName("slow"),
		WithSlowAcquire(time.Millisecond, func(s SlowAcquire) {
			c := s
			slow.Store(&c)
		}),
	)
	m := Spawn(g, 0)

	w := m.Write()
	acquired := make(chan struct{})
	go func() {
		w2 := m.Write()
		close(acquired)
		w2.Unlock()
	}()
	time.Sleep(30 * time.Millisecond)
	w.Unlock()
	<-acquired

	got := slow.Load()
	require.NotNil(t, got, "slow acquire callback not fired")
	assert.Equal(t, "slow", got.Group)
	assert.GreaterOrEqual(t, got.Wait, time.Millisecond)
	assert.NotZero(t, got.Goroutine)
}

func TestSlowAcquireNotFiredWhenFast(t *testing.T) {
	var fired atomic.Bool
	g := NewGroup(WithSlowAcquire(time.Hour, func(SlowAcquire) { fired.Store(true) }))
	m := Spawn(g, 0)

	w := m.Write()
	w.Unlock()

	assert.False(t, fired.Load())
}

type recordedAcquire struct {
	group     string
	wait      time.Duration
	reentrant bool
	contended bool
}

// fakeRecorder 记录全部锁事件，用于断言 Recorder 协议。
type fakeRecorder struct {
	mu       sync.Mutex
	acquires []recordedAcquire
	releases []time.Duration
}

func (f *fakeRecorder) RecordAcquire(group string, wait time.Duration, reentrant, contended bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires = append(f.acquires, recordedAcquire{group, wait, reentrant, contended})
}

func (f *fakeRecorder) RecordRelease(_ string, held time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, held)
}

func TestRecorderEvents(t *testing.T) {
	rec := &fakeRecorder{}
	g := NewGroup(WithName("observed"), WithRecorder(rec))
	a := Spawn(g, 0)
	b := Spawn(g, 0)

	w := a.Write()
	r := b.Read()
	r.Unlock()
	w.Unlock()

	require.Len(t, rec.acquires, 2)
	assert.Equal(t, "observed", rec.acquires[0].group)
	assert.False(t, rec.acquires[0].reentrant)
	assert.True(t, rec.acquires[1].reentrant)
	// 只有深度归零的那次释放才上报
	require.Len(t, rec.releases, 1)
	assert.GreaterOrEqual(t, rec.releases[0], time.Duration(0))
}

func TestNewGroupNilOption(t *testing.T) {
	g := NewGroup(nil)
	require.NotNil(t, g)
	m := Spawn(g, 0)
	w := m.Write()
	w.Unlock()
}
