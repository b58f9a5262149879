package attributes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/process-timeline/internal/config"
	"github.com/mrzor/process-timeline/internal/logging"
	"github.com/mrzor/process-timeline/internal/proctree"
	"github.com/mrzor/process-timeline/internal/timesync"
)

func sampleNode() *proctree.Node {
	return &proctree.Node{
		Pid:       1001,
		Parent:    0,
		ParentPid: 1000,
		Start:     1_000_000,
		End:       3_500_000,
		Exited:    true,
		Commands: []proctree.Command{
			{Time: 1_000_100, Path: "/usr/bin/make", Argv: []string{"make", "all"}, Env: map[string]string{"FOO": "bar", "CI": "1"}},
			{Time: 1_000_200, Path: "/nonexistent", Argv: []string{"x"}, Failed: true},
		},
	}
}

func TestEnv(t *testing.T) {
	env := Env(sampleNode(), 9_000_000)

	assert.Equal(t, 1001, env["pid"])
	assert.Equal(t, 1000, env["ppid"])
	assert.Equal(t, "/usr/bin/make", env["path"])
	assert.Equal(t, []string{"make", "all"}, env["args"])
	assert.Equal(t, "make all", env["cmdline"])
	assert.Equal(t, 2, env["execs"])
	assert.InDelta(t, 2.5, env["duration"], 1e-9)
	assert.Equal(t, true, env["exited"])
}

func TestEnv_RunningWithoutExec(t *testing.T) {
	n := &proctree.Node{Pid: 7, Start: 1_000_000}
	env := Env(n, 1_250_000)

	assert.Equal(t, "", env["path"])
	assert.Empty(t, env["args"])
	assert.NotNil(t, env["env"])
	assert.InDelta(t, 0.25, env["duration"], 1e-9)
	assert.Equal(t, false, env["exited"])
}

func TestEvaluator_Simple(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "test.attr", Expression: `env["FOO"]`},
		{Name: "arg.first", Expression: `args[0]`},
		{Name: "slow", Expression: `duration > 2`},
	}

	evaluator, err := NewEvaluator(attrs, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, evaluator.Len())

	result := evaluator.Evaluate(sampleNode(), 0)
	require.Len(t, result, 3)

	assert.Equal(t, "test.attr", string(result[0].Key))
	assert.Equal(t, "bar", result[0].Value.AsString())
	assert.Equal(t, "arg.first", string(result[1].Key))
	assert.Equal(t, "make", result[1].Value.AsString())
	assert.Equal(t, "true", result[2].Value.AsString())
}

func TestEvaluator_MapExpansion(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{{Name: "expanded", Expression: `env`}}, logging.Nop())
	require.NoError(t, err)

	labels := evaluator.Labels(sampleNode(), 0)
	assert.Equal(t, map[string]string{"expanded.FOO": "bar", "expanded.CI": "1"}, labels)
}

func TestSanitizeAttributeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with-dash", "with_dash"},
		{"with.dot", "with_dot"},
		{"MiXeD_123", "MiXeD_123"},
		{"a b/c", "a_b_c"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeAttributeName(tt.input))
		})
	}
}

func TestEvaluator_InvalidExpression(t *testing.T) {
	_, err := NewEvaluator([]config.CustomAttribute{{Name: "bad", Expression: `env[`}}, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestEvaluator_UnknownVariable(t *testing.T) {
	_, err := NewEvaluator([]config.CustomAttribute{{Name: "bad", Expression: `nosuchvar + 1`}}, logging.Nop())
	assert.Error(t, err)
}

func TestEvaluator_RuntimeErrorSkipsAttribute(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "oob", Expression: `args[5]`},
		{Name: "ok", Expression: `path`},
	}
	evaluator, err := NewEvaluator(attrs, logging.Nop())
	require.NoError(t, err)

	result := evaluator.Evaluate(&proctree.Node{Pid: 1, Commands: []proctree.Command{{Path: "/bin/true", Argv: []string{"true"}}}}, 0)
	require.Len(t, result, 1)
	assert.Equal(t, "ok", string(result[0].Key))
	assert.Equal(t, "/bin/true", result[0].Value.AsString())
}

func TestEvaluator_MissingKey(t *testing.T) {
	// A missing map key yields the zero value, not an error.
	evaluator, err := NewEvaluator([]config.CustomAttribute{{Name: "missing", Expression: `env["NOPE"]`}}, logging.Nop())
	require.NoError(t, err)

	result := evaluator.Evaluate(sampleNode(), 0)
	require.Len(t, result, 1)
	assert.Equal(t, "", result[0].Value.AsString())
}

func TestEvaluator_Empty(t *testing.T) {
	evaluator, err := NewEvaluator(nil, logging.Nop())
	require.NoError(t, err)
	assert.Nil(t, evaluator.Evaluate(sampleNode(), 0))
	assert.Nil(t, evaluator.Labels(sampleNode(), 0))

	var nilEval *Evaluator
	assert.Equal(t, 0, nilEval.Len())
}

func TestEvaluator_NilNode(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{{Name: "p", Expression: `pid`}}, logging.Nop())
	require.NoError(t, err)
	assert.Nil(t, evaluator.Evaluate(nil, timesync.Stamp(0)))
}
