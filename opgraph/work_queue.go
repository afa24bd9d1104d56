package opgraph

import (
	"sync"

	"github.com/tmichaud/go-opgraph/semaphore"
)

// A WorkItem is a deferred bit of work with nothing to say: no arguments, no
// return, no error channel. Anything it needs to report travels through the
// state it captures.
type WorkItem func()

// A WorkQueue is a multiple-producer, single-consumer FIFO with a secondary
// out-of-band lane that is always drained first. It is the hand-off point
// between goroutines: producers enqueue from anywhere, while exactly one
// consumer dequeues and invokes the items.
//
// Within one lane, items enqueued by the same goroutine come out in the order
// they went in; across producers the order is whatever the lane mutex
// serialized. Having more than one goroutine dequeue at the same time results
// in undefined behavior, as does abandoning the queue while a producer or the
// consumer is mid-call.
type WorkQueue struct {
	items *semaphore.Semaphore

	normal workLane
	oob    workLane

	// Dequeued nodes are recycled through a freelist to keep allocator
	// traffic off the enqueue path.
	freeMu sync.Mutex
	free   *workNode
}

type workNode struct {
	next *workNode
	item WorkItem
}

type workLane struct {
	mu   sync.Mutex
	head *workNode
	tail *workNode
}

func (l *workLane) push(n *workNode) {
	l.mu.Lock()
	if l.tail != nil {
		l.tail.next = n
		l.tail = n
	} else {
		l.head = n
		l.tail = n
	}
	l.mu.Unlock()
}

func (l *workLane) pop() *workNode {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.head
	if n == nil {
		return nil
	}
	l.head = n.next
	if l.head == nil {
		l.tail = nil
	}
	n.next = nil
	return n
}

// NewWorkQueue returns an empty queue ready for use.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{items: semaphore.New(0)}
}

// Enqueue appends item to the queue and wakes the consumer if it is blocked
// in [WorkQueue.Dequeue]. Out-of-band items jump ahead of every normal item
// because they typically cancel or supersede work that is already queued.
//
// Enqueue may be called from any goroutine. A nil item panics.
func (q *WorkQueue) Enqueue(item WorkItem, outOfBand bool) {
	if item == nil {
		panic("opgraph: enqueue of a nil work item")
	}
	n := q.newNode()
	n.item = item
	if outOfBand {
		q.oob.push(n)
	} else {
		q.normal.push(n)
	}
	q.items.Release()
}

// Dequeue removes and returns one item, blocking until one is available.
// Only one goroutine may dequeue.
func (q *WorkQueue) Dequeue() WorkItem {
	q.items.Acquire()
	return q.take()
}

// TryDequeue removes and returns one item if any is queued, without blocking.
func (q *WorkQueue) TryDequeue() (WorkItem, bool) {
	if !q.items.TryAcquire() {
		return nil, false
	}
	return q.take(), true
}

// take pops from the lanes after the semaphore has already granted an item.
func (q *WorkQueue) take() WorkItem {
	n := q.oob.pop()
	if n == nil {
		n = q.normal.pop()
	}
	if n == nil {
		panic("opgraph: a work queue that claims to have items is empty")
	}
	item := n.item
	n.item = nil
	q.freeMu.Lock()
	n.next = q.free
	q.free = n
	q.freeMu.Unlock()
	return item
}

func (q *WorkQueue) newNode() *workNode {
	q.freeMu.Lock()
	n := q.free
	if n != nil {
		q.free = n.next
		n.next = nil
	}
	q.freeMu.Unlock()
	if n == nil {
		n = new(workNode)
	}
	return n
}
