// Package attributes evaluates user expressions against traced processes.
//
// Expressions use the expr language and see one process at a time:
//
//	pid       int                process id
//	ppid      int                parent pid, 0 for the root
//	path      string             path of the last successful exec
//	args      []string           argv of that exec
//	argv      []string           alias of args
//	env       map[string]string  environment, empty unless captured
//	cmdline   string             args joined by spaces
//	execs     int                number of execs, failed ones included
//	duration  float64            lifetime in seconds
//	exited    bool               false while the process is still running
//
// Two evaluators:
//   - Evaluator: custom labels, one attribute per NAME=EXPR (maps expand)
//   - TraceIDEvaluator: trace id for OTEL export, evaluated on the root
//
// Invalid trace IDs are hashed with SHA-256 to produce valid IDs.
package attributes
