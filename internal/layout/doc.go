// Package layout assigns timeline tracks to a process forest.
//
// Pack places a node's children by sweeping their lifetimes left to right:
//
//	time ──────────────────────────────────────────►
//	row 0  [ parent ....................................]
//	row 1    [ child A ..........]  [ child C .....]
//	row 2         [ child B ]
//
// Row 0 of every placed subtree is the node's own row. Children are
// allocated contiguous blocks below it from a FreeList, first-fit, and a
// block is released when the child ends. At one time point all releases
// happen before any allocation, so a child starting exactly when a sibling
// ends can take its rows.
//
// A child is packed before it is allocated, so its block is exactly as tall
// as its own subtree needs. Offsets are relative to the parent's row;
// PlacedNode.Visit yields absolute rows.
//
// Zero-length children are not placed. Children still running end at the
// forest's largest observed timestamp.
//
// Packing reads the forest and never modifies it.
package layout
