package layout

import (
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// Layout is a packed forest ready for rendering. Root is nil when no
// process has been seen yet.
type Layout struct {
	Root    *PlacedNode
	TimeMin timesync.Stamp
	TimeMax timesync.Stamp
}

// Emit packs the forest root. The forest must not be mutated while Emit
// runs and for as long as the returned layout is in use.
func Emit(forest *proctree.Forest) Layout {
	timeMin, timeMax, _ := forest.TimeRange()
	out := Layout{TimeMin: timeMin, TimeMax: timeMax}

	if root := forest.Root(); root != nil {
		out.Root = Pack(forest, root)
	}
	return out
}

// Rows returns the total number of rows the layout occupies.
func (l Layout) Rows() int {
	if l.Root == nil {
		return 0
	}
	return l.Root.Height
}

// Empty reports whether there is nothing to draw.
func (l Layout) Empty() bool {
	return l.Root == nil
}
