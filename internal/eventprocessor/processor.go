package eventprocessor

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
	"github.com/mrzor/process-timeline/internal/traceline"
)

// ProcessHandler receives lifecycle events in trace order.
// proctree.Builder implements it.
type ProcessHandler interface {
	Observe(t timesync.Stamp)
	Spawn(parentPid, childPid int, t timesync.Stamp) error
	Exec(pid int, cmd proctree.Command) error
	Exit(pid int, t timesync.Stamp) error
}

// LineRecorder persists raw lines before they are decoded.
type LineRecorder interface {
	RecordLine(text string) error
}

// Stats counts what the processor has seen.
type Stats struct {
	Lines        int
	Spawned      int
	Executed     int
	Exited       int
	Ignored      int
	Unrecognized int
	Skipped      int
}

// Options configures a Processor.
type Options struct {
	// KeepGoing drops lines that violate the trace protocol instead of
	// failing the session.
	KeepGoing bool
	Recorder  LineRecorder
}

// Processor decodes lines and applies them to a ProcessHandler.
// It is not safe for concurrent use.
type Processor struct {
	decoder  *traceline.Decoder
	handler  ProcessHandler
	recorder LineRecorder
	logger   *zap.Logger

	keepGoing bool
	stats     Stats
}

// NewProcessor creates a new line processor.
func NewProcessor(handler ProcessHandler, logger *zap.Logger, opts Options) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		decoder:   traceline.NewDecoder(),
		handler:   handler,
		recorder:  opts.Recorder,
		logger:    logger,
		keepGoing: opts.KeepGoing,
	}
}

// HandleLine processes one raw trace line.
func (p *Processor) HandleLine(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	p.stats.Lines++

	if p.recorder != nil {
		if err := p.recorder.RecordLine(text); err != nil {
			return fmt.Errorf("recording line: %w", err)
		}
	}

	line, err := traceline.SplitLine(text)
	if err != nil {
		return p.fail(err)
	}
	p.handler.Observe(line.Time)

	event, err := p.decoder.DecodeLine(line)
	if err != nil {
		return p.fail(err)
	}
	if event == nil {
		// first half of an unfinished call
		return nil
	}

	if err := p.route(event); err != nil {
		var buildErr *proctree.BuildError
		if errors.As(err, &buildErr) && buildErr.Line == "" {
			buildErr.Line = line.Text
		}
		return p.fail(err)
	}
	return nil
}

// route dispatches a decoded event by kind.
func (p *Processor) route(event *traceline.Event) error {
	switch event.Kind {
	case traceline.KindSpawned:
		p.stats.Spawned++
		return p.handler.Spawn(event.Pid, event.ChildPid, event.Time)
	case traceline.KindExecuted:
		p.stats.Executed++
		return p.handler.Exec(event.Pid, proctree.Command{
			Time:   event.Time,
			Path:   event.Path,
			Argv:   event.Argv,
			Env:    event.Env,
			Failed: event.Failed,
		})
	case traceline.KindExited:
		p.stats.Exited++
		return p.handler.Exit(event.Pid, event.Time)
	case traceline.KindIgnored:
		p.stats.Ignored++
		return nil
	case traceline.KindUnrecognized:
		p.stats.Unrecognized++
		p.logger.Warn("unrecognized trace line",
			zap.Int("pid", event.Pid),
			zap.String("body", event.Raw))
		return nil
	default:
		return nil
	}
}

func (p *Processor) fail(err error) error {
	if !p.keepGoing {
		return err
	}
	p.stats.Skipped++
	p.logger.Warn("skipping trace line", zap.Error(err))
	return nil
}

// Finish reports calls left unfinished when the stream ended.
func (p *Processor) Finish() {
	for _, pid := range p.decoder.Pending() {
		p.logger.Warn("unfinished call never resumed", zap.Int("pid", pid))
	}
	p.logger.Debug("trace processed",
		zap.Int("lines", p.stats.Lines),
		zap.Int("spawned", p.stats.Spawned),
		zap.Int("executed", p.stats.Executed),
		zap.Int("exited", p.stats.Exited),
		zap.Int("ignored", p.stats.Ignored),
		zap.Int("unrecognized", p.stats.Unrecognized),
		zap.Int("skipped", p.stats.Skipped))
}

// Stats returns the counters accumulated so far.
func (p *Processor) Stats() Stats {
	return p.stats
}
