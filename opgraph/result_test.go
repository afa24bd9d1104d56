package opgraph_test

import (
	"errors"
	"testing"

	"github.com/tmichaud/go-opgraph/opgraph"
)

var testDomain = opgraph.NewErrorDomain("opgraph test")

func TestResultEmpty(t *testing.T) {
	var r opgraph.Result[int]
	if r.IsValid() || r.IsValue() || r.IsError() || r.IsFailure() {
		t.Error("zero result claims to hold something")
	}
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.Get() })
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.ErrorCode() })
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.Failure() })
}

func TestResultValue(t *testing.T) {
	var r opgraph.Result[int]
	r.SetValue(17)
	if !r.IsValid() || !r.IsValue() {
		t.Error("result does not report holding a value")
	}
	// Reading is non-destructive; both reads must succeed.
	for i := 0; i < 2; i++ {
		got, err := r.Get()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got != 17 {
			t.Errorf("got %d; want 17", got)
		}
	}
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.ErrorCode() })
}

func TestResultSingleSet(t *testing.T) {
	var r opgraph.Result[int]
	r.SetValue(1)
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.SetValue(2) })
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.SetError(testDomain.Code(1)) })
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.SetFailure(errors.New("nope")) })
}

func TestResultNilPayloads(t *testing.T) {
	var r opgraph.Result[int]
	mustPanic[*opgraph.ErrNilPayload](t, func() { r.SetError(opgraph.ErrorCode{}) })
	mustPanic[*opgraph.ErrNilPayload](t, func() { r.SetFailure(nil) })
	if r.IsValid() {
		t.Error("rejected payloads must leave the result empty")
	}
}

func TestResultErrorCode(t *testing.T) {
	code := testDomain.Code(3)
	var r opgraph.Result[int]
	r.SetError(code)
	if !r.IsError() {
		t.Fatal("result does not report holding an error code")
	}
	if got := r.ErrorCode(); got != code {
		t.Errorf("got code %v; want %v", got, code)
	}
	_, err := r.Get()
	var codeErr *opgraph.CodeError
	if !errors.As(err, &codeErr) {
		t.Fatalf("Get returned %T; want *CodeError", err)
	}
	if codeErr.Code != code {
		t.Errorf("wrapped code %v; want %v", codeErr.Code, code)
	}
}

func TestResultFailure(t *testing.T) {
	failure := errors.New("it all went wrong")
	var r opgraph.Result[string]
	r.SetFailure(failure)
	if !r.IsFailure() {
		t.Fatal("result does not report holding a failure")
	}
	if got := r.Failure(); got != failure {
		t.Errorf("got %v; want the original failure", got)
	}
	_, err := r.Get()
	if err != failure {
		t.Errorf("Get returned %v; want the original failure", err)
	}
}

func TestResultTake(t *testing.T) {
	var r opgraph.Result[int]
	r.SetValue(5)
	got, err := r.Take()
	if err != nil || got != 5 {
		t.Fatalf("Take returned (%d, %v); want (5, nil)", got, err)
	}
	if r.IsValid() {
		t.Error("Take must leave the result empty")
	}
	mustPanic[*opgraph.ErrInvalidResult](t, func() { r.Take() })
	// The drained slot can be set again.
	r.SetValue(6)
	if got, _ := r.Get(); got != 6 {
		t.Errorf("got %d; want 6", got)
	}
}

func TestResultCopyTo(t *testing.T) {
	failure := errors.New("original failure")
	var src, dst opgraph.Result[int]
	src.SetFailure(failure)
	src.CopyTo(&dst)
	if !src.IsFailure() {
		t.Error("CopyTo must not disturb the source")
	}
	if got := dst.Failure(); got != failure {
		t.Errorf("destination holds %v; want the original failure", got)
	}
}

func TestResultMoveTo(t *testing.T) {
	var src, dst opgraph.Result[int]
	src.SetValue(9)
	src.MoveTo(&dst)
	if src.IsValid() {
		t.Error("MoveTo must leave the source empty")
	}
	if got, _ := dst.Get(); got != 9 {
		t.Errorf("destination holds %d; want 9", got)
	}

	var empty, other opgraph.Result[int]
	mustPanic[*opgraph.ErrInvalidResult](t, func() { empty.MoveTo(&other) })
}
