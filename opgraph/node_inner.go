package opgraph

import (
	"sync"
	"weak"
)

// nodeInner is the dependency-tracking part of an operation, shared by every
// instantiation of the generic [Operation] type.
//
// Edge directions follow the survival rules of the graph: the dependencies
// map holds strong references (an input must outlive everything that will
// read it) while the dependents map holds weak references (a reader nobody
// else retains may be collected, and the dependency then discovers the dead
// entry lazily and skips it).
type nodeInner struct {
	finished bool

	// self is the canonical handle for this node, handed to dependents in
	// finish notifications. It refers back to the operation that owns this
	// nodeInner; the resulting cycle is collectible as a unit once no
	// external reference remains.
	self     AnyOperation
	delegate Delegate

	// dependencies is fixed at construction and only ever shrinks, keyed by
	// node identity with the caller's handle as the value.
	dependencies map[*nodeInner]AnyOperation

	// dependents is keyed by weak pointer so that an entry neither keeps its
	// dependent alive nor dangles: a dead entry upgrades to nil and is
	// silently dropped. weak.Pointer values made from the same node compare
	// equal, which is what makes them usable as map keys.
	mu         sync.Mutex
	dependents map[weak.Pointer[nodeInner]]struct{}
}

func newNodeInner(deps []AnyOperation) *nodeInner {
	n := &nodeInner{
		dependencies: make(map[*nodeInner]AnyOperation, len(deps)),
	}
	for _, dep := range deps {
		n.dependencies[dep.opNode()] = dep
	}
	return n
}

func (n *nodeInner) addDependent(dependent *nodeInner) {
	n.mu.Lock()
	if n.dependents == nil {
		n.dependents = make(map[weak.Pointer[nodeInner]]struct{})
	}
	n.dependents[weak.Make(dependent)] = struct{}{}
	n.mu.Unlock()
}

func (n *nodeInner) removeDependent(dependent *nodeInner) {
	n.mu.Lock()
	delete(n.dependents, weak.Make(dependent))
	n.mu.Unlock()
}

// popDependent removes and returns one dependent entry, or false when the map
// is drained.
func (n *nodeInner) popDependent() (weak.Pointer[nodeInner], bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for w := range n.dependents {
		delete(n.dependents, w)
		return w, true
	}
	return weak.Pointer[nodeInner]{}, false
}

// dependencyFinished is the notification entry point called by a finishing
// dependency. The dependency must actually be in our dependency set.
func (n *nodeInner) dependencyFinished(dep AnyOperation) {
	if _, ok := n.dependencies[dep.opNode()]; !ok {
		panic(&ErrBadDependency{reason: "notified about a dependency this operation does not have"})
	}
	if n.delegate != nil {
		n.delegate.DependencyFinished(dep)
	}
}

// setFinished marks the node finished and propagates the news.
//
// Dependency edges are dropped first: each dependency forgets us, and we
// forget all of them, so the inputs become collectible as soon as nothing
// else needs them. Dependents are then notified by popping entries one at a
// time rather than ranging over the map, because a notified dependent may
// re-enter and deregister other dependents while we are still walking.
func (n *nodeInner) setFinished() {
	self := n.self
	n.finished = true

	for depNode := range n.dependencies {
		depNode.removeDependent(n)
	}
	n.dependencies = nil

	for {
		w, ok := n.popDependent()
		if !ok {
			break
		}
		if dependent := w.Value(); dependent != nil {
			dependent.dependencyFinished(self)
		}
	}
}

func (n *nodeInner) removeDependency(dep AnyOperation) {
	depNode := dep.opNode()
	if _, ok := n.dependencies[depNode]; !ok {
		panic(&ErrBadDependency{reason: "tried to remove a dependency this operation does not have"})
	}
	depNode.removeDependent(n)
	delete(n.dependencies, depNode)
}

// RegisterAsDependent walks op's dependency set and registers op as a
// dependent of each entry.
//
// Factory functions must call this once they hold a proper reference to the
// new operation; it cannot happen inside construction because the dependents
// map must be able to hand the very same operation back out to notify it.
// Calling it again later is harmless.
func RegisterAsDependent(op AnyOperation) {
	n := op.opNode()
	for depNode := range n.dependencies {
		depNode.addDependent(n)
	}
}
