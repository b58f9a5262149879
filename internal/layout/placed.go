package layout

import (
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// TimeBound is the span of every timestamp recorded for a subtree.
type TimeBound struct {
	Min timesync.Stamp
	Max timesync.Stamp
}

// PlacedNode is a process with its track assignment.
type PlacedNode struct {
	// Node is the source process in the packed forest snapshot.
	Node *proctree.Node

	// Offset is the first row of this subtree, relative to the parent's
	// own row. The root has offset 0.
	Offset int
	// Height is the number of rows of the subtree, own row included.
	Height int

	Depth    int
	MaxDepth int

	// Start and End are the effective interval drawn for the process.
	Start timesync.Stamp
	End   timesync.Stamp

	Bound    TimeBound
	Children []*PlacedNode
}

// Visit calls fn for p and every placed descendant, parents first, with
// the absolute row of each node.
func (p *PlacedNode) Visit(fn func(n *PlacedNode, row int)) {
	p.visit(0, fn)
}

func (p *PlacedNode) visit(base int, fn func(*PlacedNode, int)) {
	row := base + p.Offset
	fn(p, row)
	for _, child := range p.Children {
		child.visit(row, fn)
	}
}

// Count returns the number of placed nodes in the subtree.
func (p *PlacedNode) Count() int {
	n := 0
	p.Visit(func(*PlacedNode, int) { n++ })
	return n
}
