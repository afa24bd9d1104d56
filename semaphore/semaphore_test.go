package semaphore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/tmichaud/go-opgraph/semaphore"
)

func TestCounting(t *testing.T) {
	s := semaphore.New(2)
	if got := s.Value(); got != 2 {
		t.Fatalf("initial value %d; want 2", got)
	}
	s.Acquire()
	s.Acquire()
	if got := s.Value(); got != 0 {
		t.Fatalf("value after two acquires %d; want 0", got)
	}
	if s.TryAcquire() {
		t.Fatal("TryAcquire succeeded at zero")
	}
	s.Release()
	if !s.TryAcquire() {
		t.Fatal("TryAcquire failed after a release")
	}
}

func TestReleaseBeyondInitial(t *testing.T) {
	// The count is not a capacity; releases accumulate without bound.
	s := semaphore.New(0)
	for i := 0; i < 100; i++ {
		s.Release()
	}
	if got := s.Value(); got != 100 {
		t.Fatalf("value %d; want 100", got)
	}
	for i := 0; i < 100; i++ {
		if !s.TryAcquire() {
			t.Fatalf("TryAcquire %d failed", i)
		}
	}
	if s.TryAcquire() {
		t.Fatal("TryAcquire succeeded past the accumulated count")
	}
}

func TestAcquireBlocks(t *testing.T) {
	s := semaphore.New(0)
	acquired := make(chan struct{})
	go func() {
		s.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire returned with a zero count")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Acquire never woke up after a release")
	}
}

func TestManyWaiters(t *testing.T) {
	const waiters = 10
	s := semaphore.New(0)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Acquire()
		}()
	}
	for i := 0; i < waiters; i++ {
		s.Release()
	}
	wg.Wait()
	if got := s.Value(); got != 0 {
		t.Fatalf("value %d after balanced acquire/release; want 0", got)
	}
}

func TestNegativeInitialPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("no panic for a negative initial count")
		}
	}()
	semaphore.New(-1)
}
