package opgraph

import (
	"runtime"
	"sync"
	"weak"
)

// A Promise is the producer-side handle of a remote operation pair created by
// [NewRemote]. The producer goroutine fulfills it at most once with one of
// the Set methods; the result then travels through the consumer's
// [WorkQueue] and lands in the paired remote operation when the consumer
// drains the queue.
//
// A promise that is dropped (explicitly with [Promise.Abandon], or by
// becoming unreachable) while its result is still needed delivers an
// [*ErrBrokenPromise] failure to the remote instead, so the consumer side
// never waits on a result that can no longer arrive.
type Promise[T any] struct {
	// The inner object is split out so that this handle can be garbage
	// collected (triggering the broken-promise delivery) while the delivery
	// machinery keeps what it needs alive.
	inner *promiseInner[T]
}

type promiseInner[T any] struct {
	// target is weak: the consumer dropping its remote operation is how
	// cancellation is expressed, and a promise must not keep the remote
	// alive against that.
	target weak.Pointer[Operation[T]]
	queue  *WorkQueue

	// mu guards fulfilled. The producer's Set calls and the cleanup that
	// runs when the handle is collected can otherwise race.
	mu        sync.Mutex
	fulfilled bool
}

// NewRemote creates a remote operation owned by the consumer of q, paired
// with the promise that will deliver its result.
//
// The remote is a childless operation: it has no dependencies and nothing to
// compute. It finishes when the consumer dequeues and invokes the delivery
// closure the promise enqueued. Its dependents are ordinary consumer-side
// operations and are notified on the consumer goroutine as usual.
func NewRemote[T any](q *WorkQueue) (*Operation[T], *Promise[T]) {
	remote := NewOperation[T](nil)
	inner := &promiseInner[T]{
		target: weak.Make(remote),
		queue:  q,
	}
	p := &Promise[T]{inner: inner}
	// If the caller drops the promise without fulfilling it, deliver the
	// broken-promise failure from the cleanup. This is best-effort in the
	// same way the Go runtime's cleanup scheduling is; callers that need the
	// delivery promptly use Abandon.
	runtime.AddCleanup(p, (*promiseInner[T]).abandon, inner)
	return remote, p
}

// StillNeeded reports whether fulfilling this promise can still have an
// effect: the remote operation is live and no result was delivered yet.
// Producers use it to skip expensive work whose reader has gone away.
func (p *Promise[T]) StillNeeded() bool {
	needed := p.inner.stillNeeded()
	runtime.KeepAlive(p)
	return needed
}

// Fulfilled reports whether a Set call has already run, including Set calls
// absorbed because the remote was dropped, or the promise was abandoned.
func (p *Promise[T]) Fulfilled() bool {
	p.inner.mu.Lock()
	fulfilled := p.inner.fulfilled
	p.inner.mu.Unlock()
	runtime.KeepAlive(p)
	return fulfilled
}

// SetValue fulfills the promise with a value.
//
// For all Set methods: if the promise is already fulfilled the call panics
// with [*ErrInvalidResult]; if the remote operation has been dropped the call
// quietly marks the promise fulfilled and delivers nothing; payload validity
// rules are those of the corresponding [Result] setter.
func (p *Promise[T]) SetValue(v T) {
	var res Result[T]
	res.SetValue(v)
	p.inner.deliver(res)
	runtime.KeepAlive(p)
}

// SetError fulfills the promise with an error code.
func (p *Promise[T]) SetError(code ErrorCode) {
	var res Result[T]
	res.SetError(code)
	p.inner.deliver(res)
	runtime.KeepAlive(p)
}

// SetFailure fulfills the promise with a failure.
func (p *Promise[T]) SetFailure(err error) {
	var res Result[T]
	res.SetFailure(err)
	p.inner.deliver(res)
	runtime.KeepAlive(p)
}

// Abandon gives up on the promise without a result. If the result was still
// needed, the remote operation receives an [*ErrBrokenPromise] failure
// through the queue. Abandoning a fulfilled or already-abandoned promise does
// nothing.
func (p *Promise[T]) Abandon() {
	p.inner.abandon()
	runtime.KeepAlive(p)
}

func (pi *promiseInner[T]) stillNeeded() bool {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	return !pi.fulfilled && pi.target.Value() != nil
}

// claim marks the promise fulfilled, panicking if asked to (mustBeFirst) and
// it already was.
func (pi *promiseInner[T]) claim(mustBeFirst bool) bool {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if pi.fulfilled {
		if mustBeFirst {
			panic(&ErrInvalidResult{reason: "attempt to fulfill a promise that has already been fulfilled"})
		}
		return false
	}
	pi.fulfilled = true
	return true
}

func (pi *promiseInner[T]) deliver(res Result[T]) {
	pi.claim(true)
	if pi.target.Value() == nil {
		// Nobody is waiting anymore; the result is discarded and the
		// promise counts as fulfilled.
		return
	}
	pi.enqueueDelivery(res)
}

func (pi *promiseInner[T]) abandon() {
	if !pi.claim(false) {
		return
	}
	if pi.target.Value() == nil {
		return
	}
	// This can run during garbage collection cleanup; nothing may escape it.
	defer func() {
		recover()
	}()
	var res Result[T]
	res.SetFailure(&ErrBrokenPromise{})
	pi.enqueueDelivery(res)
}

func (pi *promiseInner[T]) enqueueDelivery(res Result[T]) {
	target := pi.target
	pi.queue.Enqueue(func() {
		// The consumer may have dropped the remote while this closure sat
		// in the queue; a dead target means there is nothing left to do.
		if remote := target.Value(); remote != nil {
			remote.SetRawResult(res)
		}
	}, false)
}
