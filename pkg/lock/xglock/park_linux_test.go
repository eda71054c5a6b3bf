//go:build linux

package xglock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFutexWordAddressesLow32(t *testing.T) {
	var word atomic.Uint64
	word.Store(0x1122334455667788)
	assert.Equal(t, uint32(0x55667788), *futexWord(&word))
}

func TestOSParkerParkReturnsOnChange(t *testing.T) {
	// 期望值不符时 FUTEX_WAIT 返回 EAGAIN，视作良性
	var word atomic.Uint64
	word.Store(5)

	done := make(chan struct{})
	go func() {
		OSParker().Park(&word, 6)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Park blocked although the word had already changed")
	}
}

func TestOSParkerWakeWithoutWaiters(t *testing.T) {
	var word atomic.Uint64
	assert.NotPanics(t, func() { OSParker().Wake(&word) })
}

func TestOSParkerWakeAfterPark(t *testing.T) {
	var word atomic.Uint64
	word.Store(1)

	// 契约允许虚假返回，像真实获取循环一样重新挂起
	done := make(chan struct{})
	go func() {
		for word.Load() == 1 {
			OSParker().Park(&word, 1)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("parked goroutine exited although the word was unchanged")
	case <-time.After(20 * time.Millisecond):
	}

	word.Store(0)
	OSParker().Wake(&word)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("parked goroutine was not woken")
	}
}

func TestOSParkerMutualExclusion(t *testing.T) {
	g := NewGroup(WithParker(OSParker()))
	m := Spawn(g, 0)

	const (
		goroutines = 8
		iters      = 100
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

	assert.Zero(t, violations.Load(), "mutual exclusion violated under the futex parker")
	assert.Equal(t, goroutines*iters, *m.Unlocked())
}
