// Package semaphore provides a counting semaphore in the classic post/wait
// style: the count starts at some value, [Semaphore.Release] increments it
// without bound, and [Semaphore.Acquire] blocks while it is zero.
//
// This is the shape a producer/consumer queue needs: the count tracks how
// many items exist, not how many slots remain, so neither a buffered channel
// nor a capacity-limiting semaphore fits. Both of those need a fixed upper
// bound on the count.
package semaphore

import (
	"sync"
)

// A Semaphore is a counting semaphore. The zero value is not usable; create
// one with [New].
type Semaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

// New returns a semaphore whose count starts at initial. A negative initial
// count panics.
func New(initial int) *Semaphore {
	if initial < 0 {
		panic("semaphore: negative initial count")
	}
	s := &Semaphore{count: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Acquire decrements the count, blocking until it is positive.
func (s *Semaphore) Acquire() {
	s.mu.Lock()
	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

// TryAcquire decrements the count if it is positive and reports whether it
// did. It never blocks.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return false
	}
	s.count--
	return true
}

// Release increments the count and wakes one blocked Acquire, if any.
func (s *Semaphore) Release() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}

// Value returns the current count. The value can change the moment it is
// read; it is for debugging and informational purposes, and relying on it for
// synchronization will create race conditions.
func (s *Semaphore) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
