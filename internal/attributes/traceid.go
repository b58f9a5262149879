package attributes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// TraceIDEvaluator derives the trace id of an exported timeline from the
// root process.
type TraceIDEvaluator struct {
	program *vm.Program
}

// NewTraceIDEvaluator compiles exprStr. With an empty expression the
// evaluator returns the zero trace id and the exporter picks a random one.
func NewTraceIDEvaluator(exprStr string) (*TraceIDEvaluator, error) {
	if exprStr == "" {
		return &TraceIDEvaluator{}, nil
	}

	program, err := expr.Compile(exprStr, expr.Env(typeEnv()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile trace-id expression: %w", err)
	}
	return &TraceIDEvaluator{program: program}, nil
}

// EvaluateAndValidate evaluates the expression against root.
//
// A result of exactly 32 hex characters is used as is. Anything else is
// hashed with SHA-256, and the returned warnings record the raw result so
// the conversion is visible on the root span.
func (e *TraceIDEvaluator) EvaluateAndValidate(root *proctree.Node, max timesync.Stamp) (trace.TraceID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.TraceID{}, nil, nil
	}
	if root == nil {
		return trace.TraceID{}, nil, fmt.Errorf("no root process")
	}

	output, err := expr.Run(e.program, Env(root, max))
	if err != nil {
		return trace.TraceID{}, nil, fmt.Errorf("failed to evaluate trace-id expression: %w", err)
	}

	resultStr := fmt.Sprint(output)
	if len(resultStr) == 32 {
		if traceID, err := trace.TraceIDFromHex(resultStr); err == nil {
			return traceID, nil, nil
		}
	}

	hash := sha256.Sum256([]byte(resultStr))
	traceID, err := trace.TraceIDFromHex(hex.EncodeToString(hash[:16]))
	if err != nil {
		return trace.TraceID{}, nil, fmt.Errorf("failed to create trace ID from hash: %w", err)
	}

	warnings := []attribute.KeyValue{
		attribute.String("_trace_id_expr_result", resultStr),
		attribute.String("_trace_id_invalid_warning", fmt.Sprintf("Expression result %q is not a valid 32-char hex trace ID, used SHA-256 hash instead", resultStr)),
	}
	return traceID, warnings, nil
}
