package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// Bar colors, cycled by tree depth.
var depthPalette = []lipgloss.Color{
	lipgloss.Color("12"), // bright blue
	lipgloss.Color("10"), // bright green
	lipgloss.Color("11"), // bright yellow
	lipgloss.Color("13"), // bright magenta
	lipgloss.Color("14"), // bright cyan
}

var (
	styleAxis = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("0"))
)

// ColorEnabled reports whether w is a terminal that should get ANSI
// styling. NO_COLOR disables it.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type cell struct {
	r     rune
	depth int // -1 for background
}

type timelineFormatter struct {
	opts Options
}

// Format draws one line per track. Each process is a bar spanning its
// effective interval, labeled with the base name of its command.
func (f *timelineFormatter) Format(w io.Writer, forest *proctree.Forest) error {
	l := layout.Emit(forest)
	if l.Root == nil {
		_, err := fmt.Fprintln(w, "no processes traced")
		return err
	}

	width := f.opts.Width
	grid := make([][]cell, l.Rows())
	for i := range grid {
		grid[i] = make([]cell, width)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' ', depth: -1}
		}
	}

	sc := newScale(l.TimeMin, l.TimeMax, width)
	l.Root.Visit(func(p *layout.PlacedNode, row int) {
		from, to := sc.span(p.Start, p.End)
		fill := '='
		if f.opts.Color {
			fill = ' '
		}
		for c := from; c < to; c++ {
			grid[row][c] = cell{r: fill, depth: p.Depth}
		}

		label := []rune(fmt.Sprintf("%s:%d", filepath.Base(p.Node.Label()), p.Node.Pid))
		for i := 0; i < len(label) && from+i < to; i++ {
			grid[row][from+i].r = label[i]
		}
	})

	conv := timesync.NewConverter(l.TimeMin)
	header := fmt.Sprintf("%s .. %s (%s, %d tracks)", l.TimeMin, l.TimeMax, conv.Offset(l.TimeMax), l.Rows())
	if _, err := fmt.Fprintln(w, f.axis(header)); err != nil {
		return err
	}

	gutter := len(fmt.Sprint(len(grid) - 1))
	for i, row := range grid {
		prefix := f.axis(fmt.Sprintf("%*d │", gutter, i))
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, f.renderRow(row), f.axis("│")); err != nil {
			return err
		}
	}
	return nil
}

func (f *timelineFormatter) axis(s string) string {
	if !f.opts.Color {
		return s
	}
	return styleAxis.Render(s)
}

// renderRow styles runs of cells that belong to the same depth together.
func (f *timelineFormatter) renderRow(row []cell) string {
	var b strings.Builder
	for start := 0; start < len(row); {
		end := start
		for end < len(row) && row[end].depth == row[start].depth {
			end++
		}

		var run strings.Builder
		for _, c := range row[start:end] {
			run.WriteRune(c.r)
		}
		text := run.String()
		if f.opts.Color && row[start].depth >= 0 {
			color := depthPalette[row[start].depth%len(depthPalette)]
			text = styleBar.Background(color).Render(text)
		}
		b.WriteString(text)
		start = end
	}
	return b.String()
}

// scale maps stamps onto columns [0, width).
type scale struct {
	min    timesync.Stamp
	length int64
	width  int
}

func newScale(min, max timesync.Stamp, width int) scale {
	length := int64(max - min)
	if length <= 0 {
		length = 1
	}
	return scale{min: min, length: length, width: width}
}

func (s scale) column(t timesync.Stamp) int {
	c := int(int64(t-s.min) * int64(s.width) / s.length)
	return max(0, min(c, s.width))
}

// span returns the half-open column range of [start, end). Every interval
// gets at least one column.
func (s scale) span(start, end timesync.Stamp) (int, int) {
	from, to := s.column(start), s.column(end)
	if from >= s.width {
		from = s.width - 1
	}
	if to <= from {
		to = from + 1
	}
	return from, to
}
