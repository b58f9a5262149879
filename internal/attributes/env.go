package attributes

import (
	"strings"

	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// typeEnv is the environment expressions are compiled against.
func typeEnv() map[string]any {
	return map[string]any{
		"pid":      0,
		"ppid":     0,
		"path":     "",
		"args":     []string{},
		"argv":     []string{},
		"env":      map[string]string{},
		"cmdline":  "",
		"execs":    0,
		"duration": 0.0,
		"exited":   false,
	}
}

// Env builds the evaluation environment for n. max is the observed end of
// the trace, used as the end of a process that is still running.
func Env(n *proctree.Node, max timesync.Stamp) map[string]any {
	var (
		path string
		args = []string{}
		env  = map[string]string{}
	)
	if cmd := n.LastCommand(); cmd != nil {
		path = cmd.Path
		if cmd.Argv != nil {
			args = cmd.Argv
		}
		if cmd.Env != nil {
			env = cmd.Env
		}
	}

	return map[string]any{
		"pid":      n.Pid,
		"ppid":     n.ParentPid,
		"path":     path,
		"args":     args,
		"argv":     args,
		"env":      env,
		"cmdline":  strings.Join(args, " "),
		"execs":    len(n.Commands),
		"duration": n.Duration(max).Seconds(),
		"exited":   n.Exited,
	}
}
