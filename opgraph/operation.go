package opgraph

import (
	"iter"
)

// Unit is the result type for operations that produce no value beyond "it
// completed without error".
type Unit = struct{}

// AnyOperation is implemented by all instantiations of the generic
// [Operation] type, regardless of their result type, along with any type that
// embeds one.
//
// It is used wherever the graph machinery needs to refer to an operation
// without caring what it produces: dependency lists, finish notifications,
// and debug rendering.
type AnyOperation interface {
	// Finished reports whether the operation has completed. It transitions
	// from false to true exactly once and never goes back.
	Finished() bool

	// Dependencies iterates over the operations this one still depends on,
	// in no particular order. A finished operation has none.
	Dependencies() iter.Seq[AnyOperation]

	// opNode keeps the interface closed: only types embedding an *Operation
	// can satisfy it.
	opNode() *nodeInner
}

// A Delegate receives the finish notifications for an operation constructed
// with [NewOperation]. This is the hook a custom operation implements to
// decide when it has everything it needs to produce its own result.
//
// DependencyFinished runs synchronously on the goroutine that finished the
// dependency, after the dependency's result is in place. It is called exactly
// once per live dependent per finishing dependency. Implementations may set
// the operation's result, remove dependencies, enqueue work, or drop
// references; they must not block.
type Delegate interface {
	DependencyFinished(dep AnyOperation)
}

// An Operation is a graph node that will eventually hold a [Result] of type
// T. Operations are created by factory functions such as the [Defer1] family,
// [NewRemote], and [NewConstant]; custom operation types embed *Operation and
// supply a [Delegate] to react to their dependencies finishing.
//
// All methods except the queries used by [Promise] delivery must be called on
// the goroutine that owns the operation.
type Operation[T any] struct {
	node *nodeInner
	res  Result[T]
}

// NewOperation allocates an operation depending on the given operations,
// deduplicated. The delegate (which may be nil for leaf operations) receives
// the dependency-finished notifications.
//
// The caller must pass the finished value (or a type embedding it) to
// [RegisterAsDependent] once it holds a proper reference; until then the new
// operation is invisible to its dependencies.
func NewOperation[T any](delegate Delegate, deps ...AnyOperation) *Operation[T] {
	op := &Operation[T]{node: newNodeInner(deps)}
	op.node.self = op
	op.node.delegate = delegate
	return op
}

// NewConstant returns an already-finished leaf operation holding v. It is the
// carrier for plain values in graphs that want everything to be an operation.
func NewConstant[T any](v T) *Operation[T] {
	op := NewOperation[T](nil)
	op.SetValue(v)
	return op
}

// Finished reports whether this operation has completed.
func (o *Operation[T]) Finished() bool {
	return o.node.finished
}

// Dependencies implements [AnyOperation].
func (o *Operation[T]) Dependencies() iter.Seq[AnyOperation] {
	return func(yield func(AnyOperation) bool) {
		for _, dep := range o.node.dependencies {
			if !yield(dep) {
				return
			}
		}
	}
}

func (o *Operation[T]) opNode() *nodeInner {
	return o.node
}

// RemoveDependency removes dep from this operation's dependency set and this
// operation from dep's dependents. It panics with [*ErrBadDependency] if dep
// is not currently a dependency.
//
// Removing the last dependency does not finish the operation; deciding what
// an operation with nothing left to wait for should do is its own policy.
func (o *Operation[T]) RemoveDependency(dep AnyOperation) {
	o.node.removeDependency(dep)
}

// IsValid reports whether a result has been stored and not drained.
func (o *Operation[T]) IsValid() bool { return o.res.IsValid() }

// IsValue reports whether the stored result is a value.
func (o *Operation[T]) IsValue() bool { return o.res.IsValue() }

// IsError reports whether the stored result is an [ErrorCode].
func (o *Operation[T]) IsError() bool { return o.res.IsError() }

// IsFailure reports whether the stored result is a captured failure.
func (o *Operation[T]) IsFailure() bool { return o.res.IsFailure() }

// Result reads the operation's result as described by [Result.Get].
func (o *Operation[T]) Result() (T, error) {
	return o.res.Get()
}

// ErrorCode returns the stored error code, with [Result.ErrorCode] semantics.
func (o *Operation[T]) ErrorCode() ErrorCode {
	return o.res.ErrorCode()
}

// Failure returns the stored failure, with [Result.Failure] semantics.
func (o *Operation[T]) Failure() error {
	return o.res.Failure()
}

// RawResult returns a copy of the operation's result slot, which may be
// empty.
func (o *Operation[T]) RawResult() Result[T] {
	return o.res
}

// TakeRawResult moves the result slot out of the operation, leaving it empty.
// This is the hand-off used by forwarding paths that do not want to copy a
// large payload twice.
func (o *Operation[T]) TakeRawResult() Result[T] {
	saved := o.res
	o.res = Result[T]{}
	return saved
}

// SetFinished finishes the operation without storing a result, leaving
// consumers to observe IsValid() == false. An operation implementor reaches
// for this after removing its last dependency when there is nothing left to
// compute. Finishing twice panics with [*ErrInvalidResult].
func (o *Operation[T]) SetFinished() {
	if o.node.finished {
		panic(&ErrInvalidResult{reason: "operation finished twice"})
	}
	o.node.setFinished()
}

// SetValue stores a value result and finishes the operation.
//
// Setters are intended for the operation's implementor, not its consumers.
// Setting an unfinished operation that already holds a result is impossible
// by construction; setting a finished one panics with [*ErrInvalidResult]
// unless the slot was drained first, in which case the call is a no-op so
// that forwarding consumers that have already taken the result do not trip
// the producer.
func (o *Operation[T]) SetValue(v T) {
	if o.skipSet() {
		return
	}
	o.res.SetValue(v)
	o.node.setFinished()
}

// SetError stores an error-code result and finishes the operation. See
// [Operation.SetValue] for the double-set rules and [Result.SetError] for
// payload validation.
func (o *Operation[T]) SetError(code ErrorCode) {
	if code.IsZero() {
		panic(&ErrNilPayload{reason: "cannot set a no-error error code result"})
	}
	if o.skipSet() {
		return
	}
	o.res.SetError(code)
	o.node.setFinished()
}

// SetFailure stores a failure result and finishes the operation. See
// [Operation.SetValue] for the double-set rules and [Result.SetFailure] for
// payload validation.
func (o *Operation[T]) SetFailure(err error) {
	if err == nil {
		panic(&ErrNilPayload{reason: "cannot set a nil failure result"})
	}
	if o.skipSet() {
		return
	}
	o.res.SetFailure(err)
	o.node.setFinished()
}

// SetRawResult installs an already-built result and finishes the operation.
// Installing an empty result panics with [*ErrInvalidResult].
func (o *Operation[T]) SetRawResult(res Result[T]) {
	if o.skipSet() {
		return
	}
	if !res.IsValid() {
		panic(&ErrInvalidResult{reason: "attempt to install an empty result"})
	}
	if o.res.IsValid() {
		panic(&ErrInvalidResult{reason: "attempt to set a result that has already been set"})
	}
	o.res = res
	o.node.setFinished()
}

// skipSet sorts out the finished cases ahead of a setter: already finished
// with a drained (or never-set) slot means ignore the call, already finished
// with a live result means the caller is double-setting.
func (o *Operation[T]) skipSet() bool {
	if !o.node.finished {
		return false
	}
	if o.res.IsValid() {
		panic(&ErrInvalidResult{reason: "attempt to set a result on an operation that already finished with one"})
	}
	return true
}
