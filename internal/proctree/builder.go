package proctree

import (
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/timesync"
)

// Builder applies lifecycle events to a Forest in arrival order.
// It is not safe for concurrent use.
type Builder struct {
	forest *Forest
	logger *zap.Logger
}

// NewBuilder creates a builder over an empty forest.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		forest: NewForest(),
		logger: logger,
	}
}

// Forest returns the forest being built. Callers must not retain node
// pointers across later mutations.
func (b *Builder) Forest() *Forest {
	return b.forest
}

// Snapshot returns a deep copy of the forest.
func (b *Builder) Snapshot() *Forest {
	return b.forest.Clone()
}

// Observe widens the observed time range. It is called for every line,
// including lines that produce no lifecycle change.
func (b *Builder) Observe(t timesync.Stamp) {
	b.forest.observe(t)
}

// Spawn records that parentPid created childPid at time t.
func (b *Builder) Spawn(parentPid, childPid int, t timesync.Stamp) error {
	b.forest.observe(t)

	parentID, ok := b.forest.live[parentPid]
	if !ok {
		return &BuildError{Err: ErrParentNotLive, Pid: parentPid}
	}

	if prev, reused := b.forest.live[childPid]; reused {
		// The previous holder never reported an exit, e.g. it was killed.
		b.logger.Warn("pid reused while still live; previous process left open",
			zap.Int("pid", childPid),
			zap.Int("previous_node", int(prev)))
	}

	id := b.forest.add(Node{
		Pid:       childPid,
		Parent:    parentID,
		ParentPid: parentPid,
		Start:     t,
	})
	parent := &b.forest.nodes[parentID]
	parent.Children = append(parent.Children, id)
	b.forest.live[childPid] = id

	b.logger.Debug("process spawned",
		zap.Int("pid", childPid),
		zap.Int("ppid", parentPid),
		zap.Stringer("time", t))
	return nil
}

// Exec appends cmd to the live process pid. The first exec of a trace,
// with no live process and no root yet, creates the root.
func (b *Builder) Exec(pid int, cmd Command) error {
	b.forest.observe(cmd.Time)

	if id, ok := b.forest.live[pid]; ok {
		n := &b.forest.nodes[id]
		n.Commands = append(n.Commands, cmd)
		b.logger.Debug("process exec",
			zap.Int("pid", pid),
			zap.String("path", cmd.Path),
			zap.Bool("failed", cmd.Failed))
		return nil
	}

	if b.forest.root != NoNode {
		return &BuildError{Err: ErrExecNotLive, Pid: pid}
	}

	id := b.forest.add(Node{
		Pid:      pid,
		Parent:   NoNode,
		Start:    cmd.Time,
		Commands: []Command{cmd},
	})
	b.forest.root = id
	b.forest.live[pid] = id

	b.logger.Debug("root process", zap.Int("pid", pid), zap.String("path", cmd.Path))
	return nil
}

// Exit closes the live process pid at time t. The node stays reachable
// through its parent.
func (b *Builder) Exit(pid int, t timesync.Stamp) error {
	b.forest.observe(t)

	id, ok := b.forest.live[pid]
	if !ok {
		return &BuildError{Err: ErrExitNotLive, Pid: pid}
	}

	n := &b.forest.nodes[id]
	if t < n.Start {
		return &BuildError{Err: ErrEndBeforeStart, Pid: pid}
	}

	n.End = t
	n.Exited = true
	delete(b.forest.live, pid)

	b.logger.Debug("process exited",
		zap.Int("pid", pid),
		zap.Duration("duration", t.Sub(n.Start)))
	return nil
}
