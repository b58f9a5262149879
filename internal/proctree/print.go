package proctree

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of the forest, one process per line.
func Fprint(w io.Writer, f *Forest) error {
	_, max, _ := f.TimeRange()

	var err error
	f.Walk(func(n *Node, depth int) bool {
		end := "running"
		if n.Exited {
			end = n.End.String()
		}
		_, err = fmt.Fprintf(w, "%s%d %s [%s, %s) %s\n",
			strings.Repeat("  ", depth), n.Pid, n.Label(), n.Start, end, n.Duration(max))
		return err == nil
	})
	return err
}
