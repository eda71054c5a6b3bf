package xglock

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Parker 是组锁的挂起原语：在锁字上阻塞与唤醒 goroutine。
//
// 锁协议对实现不敏感，任何满足以下契约的实现都能驱动组锁：
//
//   - Park 阻塞调用方，直到锁字的值不再是 old；锁字在挂起前就已
//     变化时立即返回。虚假返回是允许的，调用方会重新竞争并在需要
//     时再次挂起。
//   - Wake 唤醒至多一个在锁字上挂起的调用方；无等待者时为空操作。
//
// 实现遇到不可恢复的平台故障时直接 panic：挂起设施损坏属于环境级
// 失败，没有可用的恢复路径。
type Parker interface {
	Park(word *atomic.Uint64, old uint64)
	Wake(word *atomic.Uint64)
}

// parkShardCount 是等待表分片数，2 的幂。
const parkShardCount = 64

// tableParker 是可移植的等待表实现：按锁字地址分桶，桶锁下复查
// 锁字后再挂起，复刻 futex 的免丢失唤醒协议，但挂起的是 goroutine
// 而非 OS 线程。
type tableParker struct {
	shards [parkShardCount]parkShard
}

type parkShard struct {
	mu sync.Mutex
	// waiters 按锁字地址排队，FIFO 出队。
	// 出队顺序不构成公平性承诺：被唤醒者仍需与新来者竞争。
	waiters map[*atomic.Uint64][]chan struct{}
}

// sharedParker 是进程内共享的默认等待表。
// 所有组共用一张表，按地址散列到桶，与 runtime 的信号量表同构。
var sharedParker = newTableParker()

func defaultParker() Parker {
	return sharedParker
}

func newTableParker() *tableParker {
	p := &tableParker{}
	for i := range p.shards {
		p.shards[i].waiters = make(map[*atomic.Uint64][]chan struct{})
	}
	return p
}

func (p *tableParker) shard(word *atomic.Uint64) *parkShard {
	// 地址仅用于散列，不会被还原为指针。
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(uintptr(unsafe.Pointer(word))))
	return &p.shards[xxhash.Sum64(key[:])&(parkShardCount-1)]
}

func (p *tableParker) Park(word *atomic.Uint64, old uint64) {
	s := p.shard(word)
	s.mu.Lock()
	if word.Load() != old {
		// 桶锁下复查：锁字已变化，立即返回重新竞争。
		// 释放方的 Wake 也要过同一把桶锁，这一步关闭了
		// "释放发生在入队之前"的丢失唤醒窗口。
		s.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	s.waiters[word] = append(s.waiters[word], ch)
	s.mu.Unlock()
	<-ch
}

func (p *tableParker) Wake(word *atomic.Uint64) {
	s := p.shard(word)
	s.mu.Lock()
	q := s.waiters[word]
	if len(q) == 0 {
		s.mu.Unlock()
		return
	}
	ch := q[0]
	if len(q) == 1 {
		delete(s.waiters, word)
	} else {
		s.waiters[word] = q[1:]
	}
	s.mu.Unlock()
	close(ch)
}

// 编译期接口检查。
var _ Parker = (*tableParker)(nil)
