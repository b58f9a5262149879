package output

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/mrzor/process-timeline/internal/attributes"
	"github.com/mrzor/process-timeline/internal/proctree"
)

// Formatter writes a rendering of forest to w.
type Formatter interface {
	Format(w io.Writer, forest *proctree.Forest) error
}

// Options are shared by every formatter.
type Options struct {
	// Labels adds custom per-process labels where the format has room.
	Labels *attributes.Evaluator
	// Color enables ANSI styling in the timeline format.
	Color bool
	// Width is the number of columns used for timeline bars.
	Width int
}

const defaultWidth = 100

// New returns the formatter registered under name.
func New(name string, opts Options) (Formatter, error) {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}

	switch name {
	case "json":
		return &jsonFormatter{opts: opts}, nil
	case "yaml":
		return &yamlFormatter{opts: opts}, nil
	case "chrome":
		return &chromeFormatter{opts: opts}, nil
	case "table":
		return &tableFormatter{opts: opts}, nil
	case "timeline":
		return &timelineFormatter{opts: opts}, nil
	case "tree":
		return treeFormatter{}, nil
	case "none":
		return noneFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// formatLabels renders labels as "k=v" pairs sorted by key.
func formatLabels(labels map[string]string) string {
	keys := lo.Keys(labels)
	slices.Sort(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return k + "=" + labels[k]
	}), " ")
}

type treeFormatter struct{}

func (treeFormatter) Format(w io.Writer, forest *proctree.Forest) error {
	return proctree.Fprint(w, forest)
}

type noneFormatter struct{}

func (noneFormatter) Format(io.Writer, *proctree.Forest) error { return nil }
