package opgraph_test

import (
	"testing"

	"github.com/tmichaud/go-opgraph/opgraph"
)

// thunkOp is a do-nothing operation that records the order operations finish
// in, for asserting on propagation through the graph. It finishes itself once
// every dependency it was constructed with has finished.
type thunkOp struct {
	*opgraph.Operation[opgraph.Unit]

	name      string
	log       *[]string
	remaining int
}

func newThunk(name string, log *[]string, deps ...opgraph.AnyOperation) *thunkOp {
	th := &thunkOp{name: name, log: log}
	for _, dep := range deps {
		if !dep.Finished() {
			th.remaining++
		}
	}
	th.Operation = opgraph.NewOperation[opgraph.Unit](th, deps...)
	opgraph.RegisterAsDependent(th)
	return th
}

func (th *thunkOp) GraphLabel() string {
	return th.name
}

func (th *thunkOp) DependencyFinished(dep opgraph.AnyOperation) {
	if !dep.Finished() {
		panic("thunk notified about an unfinished dependency")
	}
	th.remaining--
	if th.remaining == 0 {
		th.Finish()
	}
}

// Finish completes the thunk directly, which is how the tests kick off
// propagation from root operations.
func (th *thunkOp) Finish() {
	*th.log = append(*th.log, th.name)
	th.SetValue(opgraph.Unit{})
}

// mustPanic runs f, which must panic with a value of type E, and hands the
// value back for further assertions.
func mustPanic[E error](t *testing.T, f func()) E {
	t.Helper()
	var recovered any
	func() {
		defer func() {
			recovered = recover()
		}()
		f()
	}()
	var want E
	if recovered == nil {
		t.Fatalf("no panic; want a %T", want)
	}
	got, ok := recovered.(E)
	if !ok {
		t.Fatalf("panic value has type %T; want %T", recovered, want)
	}
	return got
}
