package opgraph

// An Arg supplies one argument position of a deferred call. Two things
// satisfy it: an *[Operation] of the matching type, which becomes a
// dependency of the produced operation, and an immediate value wrapped with
// [Imm], which is captured and passed through at call time.
type Arg[T any] interface {
	anyArg

	// argValue unwraps the argument for the call itself.
	argValue() (T, error)
}

// anyArg is the type-erased view of an argument position, used for the parts
// of the combinator that do not care about the argument's type: dependency
// collection and failure scanning.
type anyArg interface {
	// argOperation returns the operation behind this argument, or nil for an
	// immediate value.
	argOperation() AnyOperation

	// argFailed reports whether unwrapping this argument would fail right
	// now: the argument is an operation that finished with an error code or
	// a failure.
	argFailed() bool

	// argBad returns the bad payload of a failed argument; exactly one of
	// the two returns is meaningful, with a non-nil error taking precedence.
	argBad() (ErrorCode, error)
}

func (o *Operation[T]) argOperation() AnyOperation {
	return o
}

func (o *Operation[T]) argFailed() bool {
	return o.node.finished && (o.res.IsError() || o.res.IsFailure())
}

func (o *Operation[T]) argBad() (ErrorCode, error) {
	if o.res.IsFailure() {
		return ErrorCode{}, o.res.Failure()
	}
	return o.res.ErrorCode(), nil
}

func (o *Operation[T]) argValue() (T, error) {
	return o.res.Get()
}

type immediate[T any] struct {
	v T
}

// Imm wraps a plain value so it can occupy an argument position of a deferred
// call without becoming a dependency.
func Imm[T any](v T) Arg[T] {
	return immediate[T]{v: v}
}

func (immediate[T]) argOperation() AnyOperation { return nil }
func (immediate[T]) argFailed() bool            { return false }
func (immediate[T]) argBad() (ErrorCode, error) { return ErrorCode{}, nil }
func (i immediate[T]) argValue() (T, error)     { return i.v, nil }

// deferredOp is the operation produced by the Defer family. Its delegate hook
// fires the suspended call once every operation-valued argument has finished,
// unless some argument failed first.
type deferredOp[R any] struct {
	*Operation[R]

	// args holds the positional argument wrappers until the operation
	// finishes, at which point both it and call are dropped so the inputs
	// can be collected.
	args []anyArg
	call func() (R, error)
}

func (d *deferredOp[R]) DependencyFinished(AnyOperation) {
	if d.Finished() {
		return
	}

	// The first argument, in positional order, that would fail to unwrap
	// supplies our result and the call never runs.
	for _, a := range d.args {
		if !a.argFailed() {
			continue
		}
		code, err := a.argBad()
		d.release()
		if err != nil {
			d.SetFailure(err)
		} else {
			d.SetError(code)
		}
		return
	}

	for _, a := range d.args {
		if op := a.argOperation(); op != nil && !op.Finished() {
			return
		}
	}

	call := d.call
	var res Result[R]
	func() {
		defer func() {
			if p := recover(); p != nil {
				res.SetFailure(capturedPanic(p))
			}
		}()
		v, err := call()
		if err != nil {
			res.SetFailure(err)
		} else {
			res.SetValue(v)
		}
	}()
	d.release()
	d.SetRawResult(res)
}

func (d *deferredOp[R]) release() {
	d.args = nil
	d.call = nil
}

func capturedPanic(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return &PanicError{Recovered: p}
}

// finishDeferred wires up a freshly-built deferredOp: declare the operation
// arguments as dependencies, register, and replay notifications for any that
// finished before we existed, once per distinct dependency in positional
// order.
func finishDeferred[R any](d *deferredOp[R]) *Operation[R] {
	deps := make([]AnyOperation, 0, len(d.args))
	for _, a := range d.args {
		if op := a.argOperation(); op != nil {
			deps = append(deps, op)
		}
	}
	d.Operation = NewOperation[R](d, deps...)
	RegisterAsDependent(d)

	args := d.args
	replayed := make(map[*nodeInner]bool, len(args))
	for _, a := range args {
		if d.Finished() {
			break
		}
		op := a.argOperation()
		if op == nil || !op.Finished() || replayed[op.opNode()] {
			continue
		}
		replayed[op.opNode()] = true
		d.DependencyFinished(op)
	}
	return d.Operation
}

// Deferred1 is a one-argument function held back until its argument is
// available; see [Defer1].
type Deferred1[A1, R any] struct {
	f func(A1) (R, error)
}

// Defer1 wraps f so that it can be applied to operation-valued arguments:
//
//	later := opgraph.Defer1(load).Until(path)
//
// The call runs synchronously inside the notification that finishes the last
// argument. A non-nil returned error becomes the produced operation's failure
// result, as does a panic escaping f, which never unwinds past the machinery.
// [Defer2] through [Defer4] are the same for higher arities.
func Defer1[A1, R any](f func(A1) (R, error)) Deferred1[A1, R] {
	return Deferred1[A1, R]{f: f}
}

// Until produces the operation that will run the wrapped function once a1 is
// ready.
func (df Deferred1[A1, R]) Until(a1 Arg[A1]) *Operation[R] {
	d := &deferredOp[R]{args: []anyArg{a1}}
	d.call = func() (R, error) {
		v1, err := a1.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		return df.f(v1)
	}
	return finishDeferred(d)
}

// Deferred2 is the two-argument form of [Deferred1].
type Deferred2[A1, A2, R any] struct {
	f func(A1, A2) (R, error)
}

// Defer2 is the two-argument form of [Defer1].
func Defer2[A1, A2, R any](f func(A1, A2) (R, error)) Deferred2[A1, A2, R] {
	return Deferred2[A1, A2, R]{f: f}
}

// Until produces the operation that will run the wrapped function once every
// operation-valued argument is ready.
func (df Deferred2[A1, A2, R]) Until(a1 Arg[A1], a2 Arg[A2]) *Operation[R] {
	d := &deferredOp[R]{args: []anyArg{a1, a2}}
	d.call = func() (R, error) {
		v1, err := a1.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		v2, err := a2.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		return df.f(v1, v2)
	}
	return finishDeferred(d)
}

// Deferred3 is the three-argument form of [Deferred1].
type Deferred3[A1, A2, A3, R any] struct {
	f func(A1, A2, A3) (R, error)
}

// Defer3 is the three-argument form of [Defer1].
func Defer3[A1, A2, A3, R any](f func(A1, A2, A3) (R, error)) Deferred3[A1, A2, A3, R] {
	return Deferred3[A1, A2, A3, R]{f: f}
}

// Until produces the operation that will run the wrapped function once every
// operation-valued argument is ready.
func (df Deferred3[A1, A2, A3, R]) Until(a1 Arg[A1], a2 Arg[A2], a3 Arg[A3]) *Operation[R] {
	d := &deferredOp[R]{args: []anyArg{a1, a2, a3}}
	d.call = func() (R, error) {
		v1, err := a1.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		v2, err := a2.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		v3, err := a3.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		return df.f(v1, v2, v3)
	}
	return finishDeferred(d)
}

// Deferred4 is the four-argument form of [Deferred1].
type Deferred4[A1, A2, A3, A4, R any] struct {
	f func(A1, A2, A3, A4) (R, error)
}

// Defer4 is the four-argument form of [Defer1].
func Defer4[A1, A2, A3, A4, R any](f func(A1, A2, A3, A4) (R, error)) Deferred4[A1, A2, A3, A4, R] {
	return Deferred4[A1, A2, A3, A4, R]{f: f}
}

// Until produces the operation that will run the wrapped function once every
// operation-valued argument is ready.
func (df Deferred4[A1, A2, A3, A4, R]) Until(a1 Arg[A1], a2 Arg[A2], a3 Arg[A3], a4 Arg[A4]) *Operation[R] {
	d := &deferredOp[R]{args: []anyArg{a1, a2, a3, a4}}
	d.call = func() (R, error) {
		v1, err := a1.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		v2, err := a2.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		v3, err := a3.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		v4, err := a4.argValue()
		if err != nil {
			var zero R
			return zero, err
		}
		return df.f(v1, v2, v3, v4)
	}
	return finishDeferred(d)
}
