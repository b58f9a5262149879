package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

type tableFormatter struct {
	opts Options
}

func (f *tableFormatter) Format(w io.Writer, forest *proctree.Forest) error {
	l := layout.Emit(forest)
	if l.Root == nil {
		_, err := fmt.Fprintln(w, "no processes traced")
		return err
	}

	conv := timesync.NewConverter(l.TimeMin)
	header := []string{"PID", "PPID", "START", "DURATION", "ROW", "HEIGHT", "COMMAND"}
	withLabels := f.opts.Labels.Len() > 0
	if withLabels {
		header = append(header, "LABELS")
	}

	var rows [][]string
	l.Root.Visit(func(p *layout.PlacedNode, row int) {
		n := p.Node
		duration := p.End.Sub(p.Start).String()
		if !n.Exited {
			duration += "+"
		}
		record := []string{
			strconv.Itoa(n.Pid),
			strconv.Itoa(n.ParentPid),
			conv.Offset(p.Start).String(),
			duration,
			strconv.Itoa(row),
			strconv.Itoa(p.Height),
			commandLine(n),
		}
		if withLabels {
			record = append(record, formatLabels(f.opts.Labels.Labels(n, l.TimeMax)))
		}
		rows = append(rows, record)
	})

	table := tablewriter.NewWriter(w)
	table.Header(lo.ToAnySlice(header)...)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building table: %w", err)
	}
	return table.Render()
}

// commandLine returns the argv of the last exec, or the label if the
// process never exec'd or exec'd with an empty argv.
func commandLine(n *proctree.Node) string {
	if cmd := n.LastCommand(); cmd != nil && len(cmd.Argv) > 0 {
		return strings.Join(cmd.Argv, " ")
	}
	return n.Label()
}
