package output

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// chromeEvent is one entry of the Trace Event Format. Timestamps are
// microseconds from the start of the trace.
type chromeEvent struct {
	Name string         `json:"name"`
	Cat  string         `json:"cat,omitempty"`
	Ph   string         `json:"ph"`
	Ts   int64          `json:"ts"`
	Dur  int64          `json:"dur,omitempty"`
	Pid  int            `json:"pid"`
	Tid  int            `json:"tid"`
	Args map[string]any `json:"args,omitempty"`
}

type chromeTrace struct {
	TraceEvents     []chromeEvent `json:"traceEvents"`
	DisplayTimeUnit string        `json:"displayTimeUnit"`
}

type chromeFormatter struct {
	opts Options
}

// Format writes one complete ("X") event per placed process. All events
// share the root pid and use the absolute track row as thread id, so the
// viewer draws the same packing as the timeline format.
func (f *chromeFormatter) Format(w io.Writer, forest *proctree.Forest) error {
	out := chromeTrace{
		TraceEvents:     []chromeEvent{},
		DisplayTimeUnit: "ms",
	}

	l := layout.Emit(forest)
	if l.Root != nil {
		out.TraceEvents = f.events(l)
	}

	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (f *chromeFormatter) events(l layout.Layout) []chromeEvent {
	conv := timesync.NewConverter(l.TimeMin)
	rootPid := l.Root.Node.Pid

	events := []chromeEvent{{
		Name: "process_name",
		Ph:   "M",
		Pid:  rootPid,
		Args: map[string]any{"name": l.Root.Node.Label()},
	}}

	l.Root.Visit(func(p *layout.PlacedNode, row int) {
		n := p.Node
		args := map[string]any{
			"pid":    n.Pid,
			"height": p.Height,
		}
		if cmd := n.LastCommand(); cmd != nil {
			args["argv"] = cmd.Argv
		}
		if !n.Exited {
			args["running"] = true
		}
		for k, v := range f.opts.Labels.Labels(n, l.TimeMax) {
			args[k] = v
		}

		events = append(events, chromeEvent{
			Name: filepath.Base(n.Label()),
			Cat:  "process",
			Ph:   "X",
			Ts:   conv.OffsetMicros(p.Start),
			Dur:  conv.OffsetMicros(p.End) - conv.OffsetMicros(p.Start),
			Pid:  rootPid,
			Tid:  row,
			Args: args,
		})
	})
	return events
}
