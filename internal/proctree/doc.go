// Package proctree builds the process forest from lifecycle events.
//
// Nodes live in an arena owned by the Forest and are addressed by NodeID.
// Parent/child links are NodeIDs, never pointers, so a Forest can be
// cloned cheaply for a read-only snapshot.
//
// Builder is the single mutator:
//
// Commands (mutations):
//   - Observe(t) - Widen the observed time range
//   - Spawn(parent, child, t) - Attach a new live child to a live parent
//   - Exec(pid, cmd) - Append a command, or create the root
//   - Exit(pid, t) - Close a live node and drop it from the live index
//
// Queries (read-only, on Forest):
//   - Root(), Node(id), Live(pid), TimeRange(), Walk(fn)
//
// A pid identifies a node only while that node is live. Once a process has
// exited, its pid may be reused by a new process and lookups by pid return
// the new one.
package proctree
