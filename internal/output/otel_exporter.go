package output

import (
	"context"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/attributes"
	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// OTELExporter turns a forest into one span per process.
type OTELExporter struct {
	tracer  trace.Tracer
	traceID *attributes.TraceIDEvaluator
	labels  *attributes.Evaluator
	logger  *zap.Logger
}

// NewOTELExporter creates an exporter. traceID and labels may be nil.
func NewOTELExporter(tracer trace.Tracer, traceID *attributes.TraceIDEvaluator, labels *attributes.Evaluator, logger *zap.Logger) *OTELExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTELExporter{
		tracer:  tracer,
		traceID: traceID,
		labels:  labels,
		logger:  logger,
	}
}

type placement struct {
	row    int
	height int
}

// Export emits spans for every process reachable from the root, parents
// before children, and returns the number of spans ended. Processes still
// running end at the last observed timestamp and carry process.running.
func (e *OTELExporter) Export(ctx context.Context, forest *proctree.Forest) (int, error) {
	root := forest.Root()
	if root == nil {
		return 0, nil
	}
	_, max, _ := forest.TimeRange()

	placed := make(map[proctree.NodeID]placement)
	if l := layout.Emit(forest); l.Root != nil {
		l.Root.Visit(func(p *layout.PlacedNode, row int) {
			placed[p.Node.ID] = placement{row: row, height: p.Height}
		})
	}

	rootCtx, warnings, err := e.rootContext(ctx, root, max)
	if err != nil {
		return 0, err
	}

	spanCtx := make(map[proctree.NodeID]context.Context, forest.Len())
	count := 0
	forest.Walk(func(n *proctree.Node, _ int) bool {
		parentCtx := rootCtx
		if pc, ok := spanCtx[n.Parent]; ok {
			parentCtx = pc
		}

		spanName := "process " + filepath.Base(n.Label())
		childCtx, span := e.tracer.Start(parentCtx, spanName,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithTimestamp(n.Start.Time()),
		)
		spanCtx[n.ID] = childCtx

		span.SetAttributes(
			attribute.Int("process.pid", n.Pid),
			attribute.Int("process.parent_pid", n.ParentPid),
			attribute.Int64("process.duration_us", n.Duration(max).Microseconds()),
			attribute.Int("process.exec_count", len(n.Commands)),
		)
		if cmd := n.LastCommand(); cmd != nil {
			span.SetAttributes(
				attribute.String("process.executable.path", cmd.Path),
				attribute.StringSlice("process.command_args", cmd.Argv),
			)
			if cmd.Failed {
				span.SetStatus(codes.Error, "every exec failed")
			}
		}
		if p, ok := placed[n.ID]; ok {
			span.SetAttributes(
				attribute.Int("timeline.track", p.row),
				attribute.Int("timeline.height", p.height),
			)
		}
		if !n.Exited {
			span.SetAttributes(attribute.Bool("process.running", true))
		}
		if n.ID == root.ID && len(warnings) > 0 {
			span.SetAttributes(warnings...)
		}
		if attrs := e.labels.Evaluate(n, max); len(attrs) > 0 {
			span.SetAttributes(attrs...)
		}

		span.End(trace.WithTimestamp(n.EffectiveEnd(max).Time()))
		count++
		return true
	})

	e.logger.Debug("exported spans", zap.Int("spans", count))
	return count, nil
}

// rootContext returns the context the root span starts from. When a
// trace-id expression is configured the root gets a remote parent carrying
// that trace id, so every span lands in the requested trace.
func (e *OTELExporter) rootContext(ctx context.Context, root *proctree.Node, max timesync.Stamp) (context.Context, []attribute.KeyValue, error) {
	if e.traceID == nil {
		return ctx, nil, nil
	}

	traceID, warnings, err := e.traceID.EvaluateAndValidate(root, max)
	if err != nil {
		return nil, nil, fmt.Errorf("trace id: %w", err)
	}
	if !traceID.IsValid() {
		return ctx, warnings, nil
	}

	var spanID trace.SpanID
	copy(spanID[:], traceID[8:])
	if !spanID.IsValid() {
		spanID[7] = 1
	}
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, parent), warnings, nil
}
