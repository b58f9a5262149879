package output

import (
	"github.com/mrzor/process-timeline/internal/attributes"
	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// Document is the serialized form of a layout, shared by the json and yaml
// formats. Times are unix microseconds.
type Document struct {
	TimeMin   timesync.Stamp `json:"time_min_us" yaml:"time_min_us"`
	TimeMax   timesync.Stamp `json:"time_max_us" yaml:"time_max_us"`
	Rows      int            `json:"rows" yaml:"rows"`
	Processes int            `json:"processes" yaml:"processes"`
	Root      *ProcessDoc    `json:"root,omitempty" yaml:"root,omitempty"`
}

// ProcessDoc is one placed process.
type ProcessDoc struct {
	Pid       int               `json:"pid" yaml:"pid"`
	ParentPid int               `json:"ppid,omitempty" yaml:"ppid,omitempty"`
	Label     string            `json:"label" yaml:"label"`
	Start     timesync.Stamp    `json:"start_us" yaml:"start_us"`
	End       timesync.Stamp    `json:"end_us" yaml:"end_us"`
	Running   bool              `json:"running,omitempty" yaml:"running,omitempty"`
	Row       int               `json:"row" yaml:"row"`
	Offset    int               `json:"offset" yaml:"offset"`
	Height    int               `json:"height" yaml:"height"`
	Depth     int               `json:"depth" yaml:"depth"`
	Commands  []CommandDoc      `json:"commands,omitempty" yaml:"commands,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Children  []*ProcessDoc     `json:"children,omitempty" yaml:"children,omitempty"`
}

// CommandDoc is one exec of a process.
type CommandDoc struct {
	Time   timesync.Stamp    `json:"time_us" yaml:"time_us"`
	Path   string            `json:"path" yaml:"path"`
	Argv   []string          `json:"argv" yaml:"argv,flow"`
	Env    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Failed bool              `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// NewDocument packs forest and converts the result.
func NewDocument(forest *proctree.Forest, labels *attributes.Evaluator) Document {
	l := layout.Emit(forest)
	doc := Document{
		TimeMin: l.TimeMin,
		TimeMax: l.TimeMax,
		Rows:    l.Rows(),
	}
	if l.Root != nil {
		doc.Processes = l.Root.Count()
		doc.Root = processDoc(l.Root, 0, l.TimeMax, labels)
	}
	return doc
}

func processDoc(p *layout.PlacedNode, base int, max timesync.Stamp, labels *attributes.Evaluator) *ProcessDoc {
	n := p.Node
	row := base + p.Offset
	out := &ProcessDoc{
		Pid:       n.Pid,
		ParentPid: n.ParentPid,
		Label:     n.Label(),
		Start:     p.Start,
		End:       p.End,
		Running:   !n.Exited,
		Row:       row,
		Offset:    p.Offset,
		Height:    p.Height,
		Depth:     p.Depth,
		Commands:  commandDocs(n.Commands),
		Labels:    labels.Labels(n, max),
	}
	for _, child := range p.Children {
		out.Children = append(out.Children, processDoc(child, row, max, labels))
	}
	return out
}

func commandDocs(cmds []proctree.Command) []CommandDoc {
	if len(cmds) == 0 {
		return nil
	}
	out := make([]CommandDoc, len(cmds))
	for i, c := range cmds {
		out[i] = CommandDoc{Time: c.Time, Path: c.Path, Argv: c.Argv, Env: c.Env, Failed: c.Failed}
	}
	return out
}
