package opgraph

// resultState identifies which of the four states a [Result] is in.
type resultState uint8

const (
	stateNothing resultState = iota
	stateValue
	stateError
	stateFailure
)

// A Result is the slot an operation's outcome lives in. It starts out empty
// and can acquire exactly one of three kinds of content: a value of type T,
// an [ErrorCode], or a failure error (typically a captured panic or an error
// returned by a deferred callable).
//
// Once set, the content never changes except through the explicit destructive
// reads ([Result.Take], [Result.MoveTo]), which reset the slot to empty.
// Setting a slot that is already set panics with [*ErrInvalidResult].
//
// The zero Result is empty and ready to use.
type Result[T any] struct {
	state   resultState
	value   T
	code    ErrorCode
	failure error
}

// IsValid reports whether the slot holds anything at all.
func (r Result[T]) IsValid() bool { return r.state != stateNothing }

// IsValue reports whether the slot holds a value.
func (r Result[T]) IsValue() bool { return r.state == stateValue }

// IsError reports whether the slot holds an [ErrorCode].
func (r Result[T]) IsError() bool { return r.state == stateError }

// IsFailure reports whether the slot holds a captured failure.
func (r Result[T]) IsFailure() bool { return r.state == stateFailure }

// Get reads the slot without disturbing it.
//
// A value comes back as (v, nil). An error code comes back wrapped in a
// [*CodeError]. A failure comes back as the captured error itself. Reading an
// empty slot is a usage error and panics with [*ErrInvalidResult].
func (r Result[T]) Get() (T, error) {
	switch r.state {
	case stateNothing:
		panic(&ErrInvalidResult{reason: "attempt to fetch a result that has not been set"})
	case stateError:
		var zero T
		return zero, &CodeError{Code: r.code}
	case stateFailure:
		var zero T
		return zero, r.failure
	}
	return r.value, nil
}

// Take reads the slot like [Result.Get] but destructively: afterwards the
// slot is empty again, whatever kind of content it held.
func (r *Result[T]) Take() (T, error) {
	saved := *r
	*r = Result[T]{}
	return saved.Get()
}

// ErrorCode returns the stored code. It panics with [*ErrInvalidResult] if
// the slot is empty or holds something other than an error code.
func (r Result[T]) ErrorCode() ErrorCode {
	r.checkKind(stateError, "an error code")
	return r.code
}

// Failure returns the stored failure error. It panics with
// [*ErrInvalidResult] if the slot is empty or holds something other than a
// failure.
func (r Result[T]) Failure() error {
	r.checkKind(stateFailure, "a failure")
	return r.failure
}

func (r Result[T]) checkKind(want resultState, what string) {
	if r.state == stateNothing {
		panic(&ErrInvalidResult{reason: "attempt to fetch a result that has not been set"})
	}
	if r.state != want {
		panic(&ErrInvalidResult{reason: "tried to fetch " + what + " from a result that does not hold one"})
	}
}

// SetValue stores a value. It panics with [*ErrInvalidResult] if the slot is
// already set.
func (r *Result[T]) SetValue(v T) {
	r.checkEmpty()
	r.state = stateValue
	r.value = v
}

// SetError stores an error code. The zero code panics with [*ErrNilPayload];
// an already-set slot panics with [*ErrInvalidResult].
func (r *Result[T]) SetError(code ErrorCode) {
	if code.IsZero() {
		panic(&ErrNilPayload{reason: "cannot set a no-error error code result"})
	}
	r.checkEmpty()
	r.state = stateError
	r.code = code
}

// SetFailure stores a captured failure. A nil error panics with
// [*ErrNilPayload]; an already-set slot panics with [*ErrInvalidResult].
func (r *Result[T]) SetFailure(err error) {
	if err == nil {
		panic(&ErrNilPayload{reason: "cannot set a nil failure result"})
	}
	r.checkEmpty()
	r.state = stateFailure
	r.failure = err
}

func (r *Result[T]) checkEmpty() {
	if r.state != stateNothing {
		panic(&ErrInvalidResult{reason: "attempt to set a result that has already been set"})
	}
}

// A ResultSetter is anything a [Result] can be transferred into. Both
// [*Operation] and [*Promise] implement it, so results can be forwarded to
// either without caring which.
type ResultSetter[T any] interface {
	SetValue(v T)
	SetError(code ErrorCode)
	SetFailure(err error)
}

// CopyTo transfers the slot's content to dst without disturbing the source.
// Copying an empty slot panics with [*ErrInvalidResult].
func (r Result[T]) CopyTo(dst ResultSetter[T]) {
	switch r.state {
	case stateNothing:
		panic(&ErrInvalidResult{reason: "attempt to copy a result that has not been set"})
	case stateValue:
		dst.SetValue(r.value)
	case stateError:
		dst.SetError(r.code)
	case stateFailure:
		dst.SetFailure(r.failure)
	}
}

// MoveTo transfers the slot's content to dst destructively, leaving the
// source empty. Moving an empty slot panics with [*ErrInvalidResult].
func (r *Result[T]) MoveTo(dst ResultSetter[T]) {
	saved := *r
	*r = Result[T]{}
	saved.CopyTo(dst)
}
