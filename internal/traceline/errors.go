package traceline

import (
	"errors"
	"fmt"
)

// Decoding failures. They are always wrapped in a *DecodeError.
var (
	ErrMalformedLine         = errors.New("malformed trace line")
	ErrDuplicateUnfinished   = errors.New("unfinished call already pending")
	ErrResumedWithoutPending = errors.New("resumed call without pending fragment")
	ErrExecGrammar           = errors.New("exec call does not match grammar")
	ErrSpawnResult           = errors.New("unparsable spawn result")
)

// DecodeError is returned for lines that violate the trace protocol.
type DecodeError struct {
	Err  error
	Pid  int
	Line string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (pid %d): %q", e.Err, e.Pid, e.Line)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(err error, pid int, line string) *DecodeError {
	return &DecodeError{Err: err, Pid: pid, Line: line}
}
