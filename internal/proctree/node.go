package proctree

import (
	"maps"
	"slices"
	"time"

	"github.com/mrzor/process-timeline/internal/timesync"
)

// NodeID addresses a node in a Forest arena.
type NodeID int

// NoNode marks an absent parent or root.
const NoNode NodeID = -1

// Command is one exec observed for a process.
type Command struct {
	Time   timesync.Stamp
	Path   string
	Argv   []string
	Env    map[string]string
	Failed bool
}

// Node is one process in the forest.
type Node struct {
	ID        NodeID
	Pid       int
	Parent    NodeID
	ParentPid int // 0 for the root
	Start     timesync.Stamp
	End       timesync.Stamp
	Exited    bool
	Commands  []Command
	Children  []NodeID
}

// EffectiveEnd returns the exit time, or max if the process is still running.
func (n *Node) EffectiveEnd(max timesync.Stamp) timesync.Stamp {
	if n.Exited {
		return n.End
	}
	return max
}

// Duration returns the effective lifetime of the node.
func (n *Node) Duration(max timesync.Stamp) time.Duration {
	return n.EffectiveEnd(max).Sub(n.Start)
}

// LastCommand returns the most recent successful exec, falling back to the
// most recent exec of any kind. It returns nil for a process that never exec'd.
func (n *Node) LastCommand() *Command {
	for i := len(n.Commands) - 1; i >= 0; i-- {
		if !n.Commands[i].Failed {
			return &n.Commands[i]
		}
	}
	if len(n.Commands) == 0 {
		return nil
	}
	return &n.Commands[len(n.Commands)-1]
}

// Label returns a short human name for the node: the path of its last
// command, or "?" if it never exec'd.
func (n *Node) Label() string {
	if cmd := n.LastCommand(); cmd != nil {
		return cmd.Path
	}
	return "?"
}

func (n Node) clone() Node {
	out := n
	out.Children = slices.Clone(n.Children)
	out.Commands = slices.Clone(n.Commands)
	for i := range out.Commands {
		out.Commands[i].Argv = slices.Clone(n.Commands[i].Argv)
		out.Commands[i].Env = maps.Clone(n.Commands[i].Env)
	}
	return out
}
