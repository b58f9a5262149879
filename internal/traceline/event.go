package traceline

import (
	"fmt"

	"github.com/mrzor/process-timeline/internal/timesync"
)

// Kind identifies the variant carried by an Event.
type Kind int

// Event kinds.
const (
	KindIgnored Kind = iota
	KindSpawned
	KindExecuted
	KindExited
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindSpawned:
		return "spawned"
	case KindExecuted:
		return "executed"
	case KindExited:
		return "exited"
	case KindUnrecognized:
		return "unrecognized"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a decoded trace line. Only the fields of its Kind are set.
type Event struct {
	Kind Kind
	Pid  int
	Time timesync.Stamp

	// KindSpawned
	ChildPid int

	// KindExecuted
	Path string
	Argv []string
	// Env is nil unless strace printed envp as an array (strace -v).
	Env map[string]string
	// Failed is set when the exec returned an error, e.g. a PATH lookup miss.
	Failed bool

	// KindUnrecognized
	Raw string
}

// Line is a trace line split into its leading fields.
type Line struct {
	Pid  int
	Time timesync.Stamp
	Body string
	Text string
}
