// Package opgraph provides some low-level utilities for describing a
// computation as a graph of operations, where each operation eventually
// acquires a result and finishing one operation drives the operations that
// depend on it.
//
// An [Operation] is a node that will eventually hold a [Result]: a value, an
// error code, or a captured failure. Operations declare their dependencies at
// construction time and dependencies can only be removed afterwards, so a
// dependency cycle would have to exist at allocation time, which the API makes
// impossible. The graph holds strong references from dependent to dependency
// (inputs outlive their readers) and weak references from dependency to
// dependent (abandoned readers can be collected).
//
// Two layers build on the node type. The deferred combinators ([Defer1]
// through [Defer4]) wrap an ordinary function so that it runs once all of its
// operation-valued arguments have finished, short-circuiting if any argument
// failed. The [Promise]/remote pair ([NewRemote]) moves a result from a
// producer goroutine into a consumer goroutine's [WorkQueue], which is the
// only blocking hand-off in the package.
//
// Within one goroutine everything is cooperative and synchronous: finishing an
// operation notifies its dependents before control returns to the caller. The
// work queue is multi-producer, single-consumer.
//
// This is a "nuts-and-bolts" abstraction intended to be used as an
// implementation detail of a higher-level system, and is not intended to be
// treated as a cross-cutting concern that appears in a library's exported API.
// Use idiomatic Go features like channels to represent relationships between
// concurrent work in larger scopes.
package opgraph
