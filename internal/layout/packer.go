package layout

import (
	"slices"

	"github.com/samber/lo"

	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

type sweepPoint struct {
	enters []*proctree.Node
	leaves []*proctree.Node
}

type packer struct {
	forest  *proctree.Forest
	timeMax timesync.Stamp
	bounds  map[proctree.NodeID]TimeBound
}

// Pack places n and its descendants. n must belong to forest, which must
// not be mutated while Pack runs.
func Pack(forest *proctree.Forest, n *proctree.Node) *PlacedNode {
	_, timeMax, _ := forest.TimeRange()
	p := &packer{
		forest:  forest,
		timeMax: timeMax,
		bounds:  make(map[proctree.NodeID]TimeBound),
	}
	return p.place(n, 0)
}

func (p *packer) place(n *proctree.Node, depth int) *PlacedNode {
	points := make(map[timesync.Stamp]*sweepPoint)
	point := func(t timesync.Stamp) *sweepPoint {
		sp, ok := points[t]
		if !ok {
			sp = &sweepPoint{}
			points[t] = sp
		}
		return sp
	}

	for _, child := range p.forest.Children(n) {
		start, end := child.Start, child.EffectiveEnd(p.timeMax)
		if start == end {
			continue
		}
		point(start).enters = append(point(start).enters, child)
		point(end).leaves = append(point(end).leaves, child)
	}

	times := lo.Keys(points)
	slices.Sort(times)

	free := NewFreeList()
	running := make(map[proctree.NodeID]*PlacedNode)
	placed := make([]*PlacedNode, 0, len(n.Children))
	maxDepth := depth

	for _, t := range times {
		sp := points[t]

		// Ends first so a child starting now can reuse the rows.
		for _, child := range sp.leaves {
			pc := running[child.ID]
			delete(running, child.ID)
			free.Release(pc.Offset-1, pc.Height)
		}

		for _, child := range sp.enters {
			pc := p.place(child, depth+1)
			pc.Offset = 1 + free.Allocate(pc.Height)
			maxDepth = max(maxDepth, pc.MaxDepth)

			running[child.ID] = pc
			placed = append(placed, pc)
		}
	}

	return &PlacedNode{
		Node:     n,
		Offset:   0,
		Height:   1 + free.Len(),
		Depth:    depth,
		MaxDepth: maxDepth,
		Start:    n.Start,
		End:      n.EffectiveEnd(p.timeMax),
		Bound:    p.bound(n),
		Children: placed,
	}
}

// bound covers the node's own timestamps and those of all its descendants,
// placed or not.
func (p *packer) bound(n *proctree.Node) TimeBound {
	if b, ok := p.bounds[n.ID]; ok {
		return b
	}

	b := TimeBound{Min: n.Start, Max: n.Start}
	widen := func(t timesync.Stamp) {
		b.Min = min(b.Min, t)
		b.Max = max(b.Max, t)
	}
	if n.Exited {
		widen(n.End)
	}
	for _, cmd := range n.Commands {
		widen(cmd.Time)
	}
	for _, child := range p.forest.Children(n) {
		cb := p.bound(child)
		widen(cb.Min)
		widen(cb.Max)
	}

	p.bounds[n.ID] = b
	return b
}
