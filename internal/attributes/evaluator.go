package attributes

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/config"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

// Evaluator compiles custom label expressions once and evaluates them per
// process.
type Evaluator struct {
	customAttrs   []config.CustomAttribute
	compiledExprs []*vm.Program
	logger        *zap.Logger
}

// NewEvaluator compiles every custom attribute expression. A compile error
// names the offending attribute.
func NewEvaluator(customAttrs []config.CustomAttribute, logger *zap.Logger) (*Evaluator, error) {
	compiledExprs := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := expr.Compile(attr.Expression, expr.Env(typeEnv()))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression for attribute %q: %w", attr.Name, err)
		}
		compiledExprs[i] = program
	}

	return &Evaluator{
		customAttrs:   customAttrs,
		compiledExprs: compiledExprs,
		logger:        logger,
	}, nil
}

// Len returns the number of configured attributes.
func (e *Evaluator) Len() int {
	if e == nil {
		return 0
	}
	return len(e.customAttrs)
}

// Evaluate runs every expression against n. An expression that fails at
// runtime is logged and skipped; the others still produce attributes.
func (e *Evaluator) Evaluate(n *proctree.Node, max timesync.Stamp) []attribute.KeyValue {
	if e.Len() == 0 || n == nil {
		return nil
	}

	env := Env(n, max)

	var attrs []attribute.KeyValue
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.compiledExprs[i], env)
		if err != nil {
			e.logger.Debug("attribute evaluation failed",
				zap.String("attribute", customAttr.Name),
				zap.Int("pid", n.Pid),
				zap.Error(err))
			continue
		}
		attrs = append(attrs, expand(customAttr.Name, output)...)
	}

	return attrs
}

// Labels is Evaluate flattened to strings, for the text formats.
func (e *Evaluator) Labels(n *proctree.Node, max timesync.Stamp) map[string]string {
	attrs := e.Evaluate(n, max)
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

// expand turns a map result into one attribute per key, named
// "<name>.<key>". Any other result becomes a single string attribute.
func expand(name string, output any) []attribute.KeyValue {
	outputValue := reflect.ValueOf(output)
	if outputValue.Kind() != reflect.Map {
		return []attribute.KeyValue{attribute.String(name, fmt.Sprint(output))}
	}

	attrs := make([]attribute.KeyValue, 0, outputValue.Len())
	for _, key := range outputValue.MapKeys() {
		attrName := name + "." + sanitizeAttributeName(fmt.Sprint(key.Interface()))
		attrs = append(attrs, attribute.String(attrName, fmt.Sprint(outputValue.MapIndex(key).Interface())))
	}
	return attrs
}

// sanitizeAttributeName replaces anything outside [A-Za-z0-9_] with an
// underscore.
func sanitizeAttributeName(name string) string {
	result := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result[i] = c
		} else {
			result[i] = '_'
		}
	}
	return string(result)
}
