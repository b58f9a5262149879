package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mrzor/process-timeline/internal/proctree"
)

type jsonFormatter struct {
	opts Options
}

func (f *jsonFormatter) Format(w io.Writer, forest *proctree.Forest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(forest, f.opts.Labels))
}

type yamlFormatter struct {
	opts Options
}

func (f *yamlFormatter) Format(w io.Writer, forest *proctree.Forest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(forest, f.opts.Labels)); err != nil {
		return err
	}
	return enc.Close()
}
