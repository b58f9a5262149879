package proctree

import (
	"errors"
	"fmt"
)

// Build failures. They are always wrapped in a *BuildError.
var (
	ErrParentNotLive  = errors.New("spawn from a pid with no live process")
	ErrExitNotLive    = errors.New("exit of a pid with no live process")
	ErrExecNotLive    = errors.New("exec by a pid that is neither live nor the root")
	ErrEndBeforeStart = errors.New("exit time precedes start time")
)

// BuildError reports an event that is inconsistent with the forest.
// Line is filled in by callers that know the originating trace line.
type BuildError struct {
	Err  error
	Pid  int
	Line string
}

func (e *BuildError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("%v (pid %d)", e.Err, e.Pid)
	}
	return fmt.Sprintf("%v (pid %d): %q", e.Err, e.Pid, e.Line)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
