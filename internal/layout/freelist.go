package layout

import "fmt"

// FreeList tracks which rows of a children region are occupied.
// It grows on demand and never shrinks.
type FreeList struct {
	free []bool
}

// NewFreeList creates an empty free list.
func NewFreeList() *FreeList {
	return &FreeList{}
}

// Len returns the number of rows ever allocated.
func (l *FreeList) Len() int {
	return len(l.free)
}

// Allocate reserves n contiguous rows and returns the first one.
func (l *FreeList) Allocate(n int) int {
	start := l.findStart(n)

	for len(l.free) < start+n {
		l.free = append(l.free, true)
	}
	for i := start; i < start+n; i++ {
		l.free[i] = false
	}
	return start
}

// Release frees n rows starting at start. Releasing a row that is not
// allocated is a programming error.
func (l *FreeList) Release(start, n int) {
	for i := start; i < start+n; i++ {
		if i >= len(l.free) || l.free[i] {
			panic(fmt.Sprintf("layout: release of unallocated row %d", i))
		}
		l.free[i] = true
	}
}

func (l *FreeList) findStart(n int) int {
	// leftmost run of n free rows
	for s := 0; s+n <= len(l.free); s++ {
		if l.allFree(s, s+n) {
			return s
		}
	}

	// free rows at the end, extended by Allocate
	s := len(l.free)
	for s > 0 && l.free[s-1] {
		s--
	}
	return s
}

func (l *FreeList) allFree(from, to int) bool {
	for i := from; i < to; i++ {
		if !l.free[i] {
			return false
		}
	}
	return true
}
