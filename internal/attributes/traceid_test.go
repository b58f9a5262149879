package attributes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrzor/process-timeline/internal/proctree"
)

func TestTraceIDEvaluator_ValidHex(t *testing.T) {
	e, err := NewTraceIDEvaluator(`env["TRACE_ID"]`)
	require.NoError(t, err)

	root := &proctree.Node{Pid: 1, Commands: []proctree.Command{{
		Path: "/bin/sh",
		Env:  map[string]string{"TRACE_ID": "0123456789abcdef0123456789abcdef"},
	}}}

	id, warnings, err := e.EvaluateAndValidate(root, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", id.String())
}

func TestTraceIDEvaluator_InvalidHexIsHashed(t *testing.T) {
	e, err := NewTraceIDEvaluator(`"build-" + string(pid)`)
	require.NoError(t, err)

	root := &proctree.Node{Pid: 42}
	id, warnings, err := e.EvaluateAndValidate(root, 0)
	require.NoError(t, err)
	assert.True(t, id.IsValid())
	require.Len(t, warnings, 2)
	assert.Equal(t, "_trace_id_expr_result", string(warnings[0].Key))
	assert.Equal(t, "build-42", warnings[0].Value.AsString())

	again, _, err := e.EvaluateAndValidate(root, 0)
	require.NoError(t, err)
	assert.Equal(t, id, again, "hashing is deterministic")
}

func TestTraceIDEvaluator_NoExpression(t *testing.T) {
	e, err := NewTraceIDEvaluator("")
	require.NoError(t, err)

	id, warnings, err := e.EvaluateAndValidate(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, warnings)
	assert.Equal(t, trace.TraceID{}, id)
}

func TestTraceIDEvaluator_NoRoot(t *testing.T) {
	e, err := NewTraceIDEvaluator(`cmdline`)
	require.NoError(t, err)

	_, _, err = e.EvaluateAndValidate(nil, 0)
	assert.Error(t, err)
}

func TestTraceIDEvaluator_CompileError(t *testing.T) {
	_, err := NewTraceIDEvaluator(`args[`)
	assert.Error(t, err)
}
