package proctree

import (
	"github.com/mrzor/process-timeline/internal/timesync"
)

// Forest is the process tree reconstructed so far.
type Forest struct {
	nodes    []Node
	root     NodeID
	live     map[int]NodeID // PID -> live node
	timeMin  timesync.Stamp
	timeMax  timesync.Stamp
	observed bool
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{
		root: NoNode,
		live: make(map[int]NodeID),
	}
}

// Root returns the root node, or nil if no process has exec'd yet.
func (f *Forest) Root() *Node {
	if f.root == NoNode {
		return nil
	}
	return &f.nodes[f.root]
}

// Node returns the node with the given id, or nil if it does not exist.
func (f *Forest) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(f.nodes) {
		return nil
	}
	return &f.nodes[id]
}

// Live returns the running node currently holding pid.
func (f *Forest) Live(pid int) (*Node, bool) {
	id, ok := f.live[pid]
	if !ok {
		return nil, false
	}
	return &f.nodes[id], true
}

// LiveCount returns the number of running processes.
func (f *Forest) LiveCount() int {
	return len(f.live)
}

// Len returns the number of nodes ever created.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// TimeRange returns the smallest and largest timestamps observed.
// ok is false before the first event.
func (f *Forest) TimeRange() (min, max timesync.Stamp, ok bool) {
	return f.timeMin, f.timeMax, f.observed
}

// Children returns the child nodes of n in spawn order.
func (f *Forest) Children(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		out = append(out, &f.nodes[id])
	}
	return out
}

// Walk visits every node reachable from the root depth-first, parents
// before children. It stops early if fn returns false.
func (f *Forest) Walk(fn func(n *Node, depth int) bool) {
	if f.root == NoNode {
		return
	}
	f.walk(f.root, 0, fn)
}

func (f *Forest) walk(id NodeID, depth int, fn func(*Node, int) bool) bool {
	n := &f.nodes[id]
	if !fn(n, depth) {
		return false
	}
	for _, child := range n.Children {
		if !f.walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy that shares no mutable state with f.
func (f *Forest) Clone() *Forest {
	out := &Forest{
		nodes:    make([]Node, len(f.nodes)),
		root:     f.root,
		live:     make(map[int]NodeID, len(f.live)),
		timeMin:  f.timeMin,
		timeMax:  f.timeMax,
		observed: f.observed,
	}
	for i := range f.nodes {
		out.nodes[i] = f.nodes[i].clone()
	}
	for pid, id := range f.live {
		out.live[pid] = id
	}
	return out
}

func (f *Forest) observe(t timesync.Stamp) {
	if !f.observed {
		f.timeMin, f.timeMax, f.observed = t, t, true
		return
	}
	if t < f.timeMin {
		f.timeMin = t
	}
	if t > f.timeMax {
		f.timeMax = t
	}
}

func (f *Forest) add(n Node) NodeID {
	n.ID = NodeID(len(f.nodes))
	f.nodes = append(f.nodes, n)
	return n.ID
}
