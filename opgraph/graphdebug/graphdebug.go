// Package graphdebug renders the dependency graph below an operation for
// debugging, either as a drawn tree or as structured log output.
//
// Rendering walks the strong dependency edges only, so it is safe on the
// goroutine that owns the operations. A finished operation has already
// dropped its dependencies and renders as a lone node; capture the drawing
// before finishing if the shape matters.
package graphdebug

import (
	"fmt"
	"log/slog"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/tmichaud/go-opgraph/opgraph"
)

// A Labeler lets an operation type choose how it appears in drawings. Types
// that do not implement it are labeled with their dynamic type.
type Labeler interface {
	GraphLabel() string
}

// Render draws op and its transitive dependencies as a tree. Operations that
// appear as a dependency of several others are drawn once per appearance.
func Render(op opgraph.AnyOperation) string {
	t := tree.NewTree(tree.NodeString(label(op)))
	addDependencies(t, op)
	return t.String()
}

func addDependencies(t *tree.Tree, op opgraph.AnyOperation) {
	i := 0
	for dep := range op.Dependencies() {
		t.AddChild(tree.NodeString(label(dep)))
		child, err := t.Child(i)
		if err != nil {
			return
		}
		addDependencies(child, dep)
		i++
	}
}

func label(op opgraph.AnyOperation) string {
	name := fmt.Sprintf("%T", op)
	if l, ok := op.(Labeler); ok {
		name = l.GraphLabel()
	}
	if op.Finished() {
		return name + " [finished]"
	}
	return name + " [pending]"
}

// LogGraph emits the rendered graph through logger at debug level, in the
// style of structured dependency-graph dumps: the message plus an
// "operation" attribute for the root label and a "dependency_graph"
// attribute holding the drawing.
func LogGraph(logger *slog.Logger, msg string, op opgraph.AnyOperation) {
	logger.Debug(msg,
		"operation", label(op),
		"dependency_graph", Render(op),
	)
}
