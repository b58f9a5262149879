package layout

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

func ms(v int64) timesync.Stamp {
	return timesync.Stamp(v * 1000)
}

func cmdAt(t timesync.Stamp, path string) proctree.Command {
	return proctree.Command{Time: t, Path: path}
}

type span struct {
	pid        int
	start, end int64
}

// flatForest builds a root living over [0, rootEnd) with the given direct
// children, spawned in slice order.
func flatForest(t *testing.T, rootEnd int64, children ...span) *proctree.Forest {
	t.Helper()
	b := proctree.NewBuilder(nil)
	require.NoError(t, b.Exec(1, cmdAt(ms(0), "/bin/root")))
	for _, c := range children {
		require.NoError(t, b.Spawn(1, c.pid, ms(c.start)))
	}
	// Exits are applied after all spawns; the builder does not require
	// events in time order.
	for _, c := range children {
		require.NoError(t, b.Exit(c.pid, ms(c.end)))
	}
	require.NoError(t, b.Exit(1, ms(rootEnd)))
	return b.Forest()
}

func childByPid(p *PlacedNode, pid int) *PlacedNode {
	for _, c := range p.Children {
		if c.Node.Pid == pid {
			return c
		}
	}
	return nil
}

func TestPack_Scenario(t *testing.T) {
	b := proctree.NewBuilder(nil)
	require.NoError(t, b.Exec(1000, cmdAt(ms(0), "/bin/a")))
	require.NoError(t, b.Spawn(1000, 1001, ms(100)))
	require.NoError(t, b.Exec(1001, cmdAt(ms(100), "/bin/b")))
	require.NoError(t, b.Exit(1001, ms(500)))
	require.NoError(t, b.Spawn(1000, 1002, ms(200)))
	require.NoError(t, b.Exec(1002, cmdAt(ms(200), "/bin/c")))
	require.NoError(t, b.Exit(1002, ms(300)))
	require.NoError(t, b.Exit(1000, ms(600)))

	out := Emit(b.Forest())
	require.NotNil(t, out.Root)

	root := out.Root
	assert.Equal(t, 1000, root.Node.Pid)
	assert.Equal(t, 0, root.Offset)
	assert.Equal(t, 3, root.Height)
	require.Len(t, root.Children, 2)

	a := childByPid(root, 1001)
	c := childByPid(root, 1002)
	assert.Equal(t, 1, a.Offset)
	assert.Equal(t, 2, c.Offset)
	assert.Equal(t, 1, a.Height)
	assert.Equal(t, ms(100), a.Start)
	assert.Equal(t, ms(500), a.End)

	assert.Equal(t, ms(0), out.TimeMin)
	assert.Equal(t, ms(600), out.TimeMax)
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, 1, root.MaxDepth)
}

func TestPack_LeafHasHeightOne(t *testing.T) {
	f := flatForest(t, 10)
	p := Pack(f, f.Root())

	assert.Equal(t, 1, p.Height)
	assert.Empty(t, p.Children)
	assert.Equal(t, 0, p.MaxDepth)
}

func TestPack_SequentialChildrenShareOneTrack(t *testing.T) {
	f := flatForest(t, 100,
		span{pid: 2, start: 0, end: 10},
		span{pid: 3, start: 20, end: 30},
		span{pid: 4, start: 40, end: 50},
		span{pid: 5, start: 60, end: 70},
	)
	p := Pack(f, f.Root())

	assert.Equal(t, 2, p.Height, "own row plus one shared track")
	for _, c := range p.Children {
		assert.Equal(t, 1, c.Offset)
	}
}

func TestPack_OverlappingChildrenNeedKTracks(t *testing.T) {
	const k = 5
	children := make([]span, k)
	for i := range children {
		children[i] = span{pid: 10 + i, start: int64(i), end: 100}
	}
	f := flatForest(t, 100, children...)
	p := Pack(f, f.Root())

	assert.Equal(t, 1+k, p.Height)
	offsets := make(map[int]bool)
	for _, c := range p.Children {
		offsets[c.Offset] = true
	}
	assert.Len(t, offsets, k)
}

func TestPack_BoundaryCoincidenceReusesTrack(t *testing.T) {
	f := flatForest(t, 30,
		span{pid: 2, start: 0, end: 10},
		span{pid: 3, start: 10, end: 20},
	)
	p := Pack(f, f.Root())

	require.Len(t, p.Children, 2)
	assert.Equal(t, p.Children[0].Offset, p.Children[1].Offset)
	assert.Equal(t, 2, p.Height)
}

func TestPack_SimultaneousStartsFollowChildOrder(t *testing.T) {
	f := flatForest(t, 30,
		span{pid: 7, start: 5, end: 20},
		span{pid: 3, start: 5, end: 20},
	)
	p := Pack(f, f.Root())

	assert.Equal(t, 1, childByPid(p, 7).Offset)
	assert.Equal(t, 2, childByPid(p, 3).Offset)
}

func TestPack_ZeroDurationChildSkipped(t *testing.T) {
	f := flatForest(t, 30,
		span{pid: 2, start: 5, end: 5},
		span{pid: 3, start: 6, end: 8},
	)
	p := Pack(f, f.Root())

	require.Len(t, p.Children, 1)
	assert.Equal(t, 3, p.Children[0].Node.Pid)
	assert.Len(t, p.Node.Children, 2, "the skipped child stays in the tree")
}

func TestPack_RunningChildEndsAtObservedMax(t *testing.T) {
	b := proctree.NewBuilder(nil)
	require.NoError(t, b.Exec(1, cmdAt(ms(0), "/bin/sh")))
	require.NoError(t, b.Spawn(1, 2, ms(10)))
	b.Observe(ms(90))

	out := Emit(b.Forest())
	require.Len(t, out.Root.Children, 1)
	assert.Equal(t, ms(90), out.Root.Children[0].End)
	assert.Equal(t, ms(90), out.Root.End)
}

func TestPack_NestedHeights(t *testing.T) {
	b := proctree.NewBuilder(nil)
	require.NoError(t, b.Exec(1, cmdAt(ms(0), "/bin/make")))
	require.NoError(t, b.Spawn(1, 2, ms(10)))
	require.NoError(t, b.Spawn(2, 3, ms(20)))
	require.NoError(t, b.Spawn(2, 4, ms(25)))
	require.NoError(t, b.Exit(3, ms(40)))
	require.NoError(t, b.Exit(4, ms(45)))
	require.NoError(t, b.Exit(2, ms(50)))
	require.NoError(t, b.Spawn(1, 5, ms(30)))
	require.NoError(t, b.Exit(5, ms(60)))
	require.NoError(t, b.Exit(1, ms(70)))

	p := Emit(b.Forest()).Root

	two := childByPid(p, 2)
	five := childByPid(p, 5)
	assert.Equal(t, 3, two.Height)
	assert.Equal(t, 1, two.Offset)
	assert.Equal(t, 4, five.Offset, "placed below the three rows of pid 2")
	assert.Equal(t, 5, p.Height)
	assert.Equal(t, 2, p.MaxDepth)
	assert.Equal(t, 2, childByPid(two, 4).Depth)

	rows := make(map[int]int)
	p.Visit(func(n *PlacedNode, row int) {
		rows[n.Node.Pid] = row
	})
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 2, 4: 3, 5: 4}, rows)
}

func TestPack_DoesNotMutateForest(t *testing.T) {
	f := flatForest(t, 100,
		span{pid: 2, start: 0, end: 50},
		span{pid: 3, start: 10, end: 60},
	)
	before := f.Clone()

	Emit(f)
	Emit(f)

	assert.Equal(t, before, f)
}

func TestEmit_EmptyForest(t *testing.T) {
	out := Emit(proctree.NewForest())

	assert.True(t, out.Empty())
	assert.Nil(t, out.Root)
	assert.Equal(t, 0, out.Rows())
}

type placement struct {
	node      *PlacedNode
	row       int
	ancestors map[proctree.NodeID]bool
}

// randomForest spawns nested children whose lifetimes stay inside their
// parent's, leaving some of them running.
func randomForest(t *testing.T, rng *rand.Rand) *proctree.Forest {
	t.Helper()
	b := proctree.NewBuilder(nil)
	nextPid := 2
	require.NoError(t, b.Exec(1, cmdAt(ms(0), "/bin/root")))

	var grow func(pid int, start, end int64, depth int)
	grow = func(pid int, start, end int64, depth int) {
		if depth > 3 || end-start < 2 {
			return
		}
		for i := rng.Intn(6); i > 0; i-- {
			cs := start + rng.Int63n(end-start)
			ce := cs + rng.Int63n(end-cs+1)
			child := nextPid
			nextPid++

			require.NoError(t, b.Spawn(pid, child, ms(cs)))
			grow(child, cs, ce, depth+1)
			// Only children of the root may keep running: they end at the
			// observed max, which is the root's own end.
			if depth > 0 || rng.Intn(5) > 0 {
				require.NoError(t, b.Exit(child, ms(ce)))
			}
		}
	}

	grow(1, 0, 1000, 0)
	require.NoError(t, b.Exit(1, ms(1000)))
	return b.Forest()
}

func TestPack_NoOverlapProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		f := randomForest(t, rng)
		root := Emit(f).Root

		var all []placement
		var collect func(p *PlacedNode, base int, ancestors map[proctree.NodeID]bool)
		collect = func(p *PlacedNode, base int, ancestors map[proctree.NodeID]bool) {
			row := base + p.Offset
			all = append(all, placement{node: p, row: row, ancestors: ancestors})

			next := make(map[proctree.NodeID]bool, len(ancestors)+1)
			for id := range ancestors {
				next[id] = true
			}
			next[p.Node.ID] = true

			for _, c := range p.Children {
				// Children stay inside the parent's rows, below its own row.
				require.GreaterOrEqual(t, c.Offset, 1)
				require.LessOrEqual(t, c.Offset+c.Height, p.Height)
				collect(c, row, next)
			}
		}
		collect(root, 0, map[proctree.NodeID]bool{})

		for i := range all {
			for j := i + 1; j < len(all); j++ {
				a, b := all[i], all[j]
				if a.ancestors[b.node.Node.ID] || b.ancestors[a.node.Node.ID] {
					continue
				}
				timeOverlap := a.node.Start < b.node.End && b.node.Start < a.node.End
				rowOverlap := a.row < b.row+b.node.Height && b.row < a.row+a.node.Height
				if timeOverlap && rowOverlap {
					t.Fatalf("iteration %d: pid %d rows [%d,%d) and pid %d rows [%d,%d) overlap in time",
						iter, a.node.Node.Pid, a.row, a.row+a.node.Height,
						b.node.Node.Pid, b.row, b.row+b.node.Height)
				}
			}
		}
	}
}
