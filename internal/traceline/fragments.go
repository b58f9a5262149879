package traceline

import (
	"sort"

	"github.com/mrzor/process-timeline/internal/timesync"
)

// Fragment is the first half of a call that strace printed as unfinished.
type Fragment struct {
	Body string
	Time timesync.Stamp
}

// FragmentTable holds at most one pending fragment per pid.
type FragmentTable struct {
	pending map[int]Fragment // PID -> unfinished call
}

// NewFragmentTable creates an empty fragment table.
func NewFragmentTable() *FragmentTable {
	return &FragmentTable{
		pending: make(map[int]Fragment),
	}
}

// Hold stores the fragment for pid.
// It fails if a fragment is already pending for that pid.
func (t *FragmentTable) Hold(pid int, frag Fragment) error {
	if _, exists := t.pending[pid]; exists {
		return ErrDuplicateUnfinished
	}
	t.pending[pid] = frag
	return nil
}

// Resume removes and returns the pending fragment for pid.
func (t *FragmentTable) Resume(pid int) (Fragment, error) {
	frag, exists := t.pending[pid]
	if !exists {
		return Fragment{}, ErrResumedWithoutPending
	}
	delete(t.pending, pid)
	return frag, nil
}

// Len returns the number of pending fragments.
func (t *FragmentTable) Len() int {
	return len(t.pending)
}

// Pids returns the pids with a pending fragment, in ascending order.
func (t *FragmentTable) Pids() []int {
	pids := make([]int, 0, len(t.pending))
	for pid := range t.pending {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}
