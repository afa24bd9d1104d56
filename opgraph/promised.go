package opgraph

// promisedOp is the producer-side forwarder created by [NewPromised].
type promisedOp[T any] struct {
	*Operation[T]

	promise *Promise[T]
	local   *Operation[T]
}

// NewPromised installs a forwarder on the producer side of a promise: an
// operation depending only on local that, when local finishes, copies local's
// raw result into promise (fulfilling it) and into itself.
//
// This is the inverse direction of [NewRemote]: the remote pair pulls a
// result into a consumer's queue, while a promised operation pushes a local
// graph's outcome out through a promise some other goroutine is waiting on.
func NewPromised[T any](promise *Promise[T], local *Operation[T]) *Operation[T] {
	po := &promisedOp[T]{promise: promise, local: local}
	po.Operation = NewOperation[T](po, local)
	RegisterAsDependent(po)
	if local.Finished() {
		po.DependencyFinished(local)
	}
	return po.Operation
}

func (po *promisedOp[T]) DependencyFinished(AnyOperation) {
	if po.Finished() {
		return
	}
	promise, local := po.promise, po.local
	po.promise, po.local = nil, nil

	res := local.RawResult()
	res.CopyTo(promise)
	po.SetRawResult(res)
}
