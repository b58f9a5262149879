// Package straceproc launches a command under strace and exposes the trace
// as a line stream.
//
// strace writes its trace to an inherited pipe on fd 3, so the traced
// command keeps the terminal's stdin, stdout and stderr.
package straceproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// traceFd is the descriptor strace writes to. ExtraFiles[0] lands on 3.
const traceFd = 3

// terminateGrace is how long a signalled tracer gets before it is killed.
const terminateGrace = 100 * time.Millisecond

// Options controls the strace invocation.
type Options struct {
	// Path is the strace binary. Defaults to "strace" looked up in PATH.
	Path string
	// StringLimit is the maximum string size strace prints.
	StringLimit int
	// CaptureEnv makes strace print envp as an array so environments can
	// be attached to execs.
	CaptureEnv bool
}

// Args returns the strace arguments that trace command with the line
// format the decoder expects.
func Args(opts Options, command string, args []string) []string {
	limit := opts.StringLimit
	if limit <= 0 {
		limit = 1 << 20
	}

	out := []string{
		"--follow-forks",
		"--string-limit=" + strconv.Itoa(limit),
		"--strings-in-hex",
		"-e", "trace=process",
		"--always-show-pid",
		"--timestamps=unix,us",
		"--output=/dev/fd/" + strconv.Itoa(traceFd),
	}
	if opts.CaptureEnv {
		out = append(out, "-v")
	}
	out = append(out, "--", command)
	return append(out, args...)
}

// Tracer is a running strace process.
type Tracer struct {
	cmd    *exec.Cmd
	trace  *os.File
	logger *zap.Logger
}

// Start launches strace tracing command. The caller must drain Trace and
// call Wait.
func Start(opts Options, command string, args []string, logger *zap.Logger) (*Tracer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := opts.Path
	if path == "" {
		path = "strace"
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating trace pipe: %w", err)
	}

	//nolint:gosec // launching the traced command is the purpose of this tool
	cmd := exec.Command(path, Args(opts, command, args)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{w}

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	// Only the child holds the write end now, so the reader sees EOF when
	// strace exits.
	_ = w.Close()

	logger.Debug("tracer started",
		zap.Int("pid", cmd.Process.Pid),
		zap.Strings("argv", cmd.Args))

	return &Tracer{cmd: cmd, trace: r, logger: logger}, nil
}

// Pid returns the pid of the strace process.
func (t *Tracer) Pid() int {
	return t.cmd.Process.Pid
}

// Trace returns the read end of the trace pipe.
func (t *Tracer) Trace() io.Reader {
	return t.trace
}

// Close releases the read end of the trace pipe.
func (t *Tracer) Close() error {
	return t.trace.Close()
}

// Wait blocks until strace exits and returns its exit code, which strace
// sets to the traced command's. SIGINT and SIGTERM received meanwhile are
// forwarded as a SIGTERM. Cancelling ctx terminates the tracer and returns
// the context error.
func (t *Tracer) Wait(ctx context.Context) (int, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() {
		done <- t.cmd.Wait()
	}()

	select {
	case err := <-done:
		return exitCode(err)
	case sig := <-sigCh:
		t.logger.Info("received signal, terminating", zap.Stringer("signal", sig))
		t.terminate()
		return exitCode(<-done)
	case <-ctx.Done():
		t.terminate()
		<-done
		return -1, ctx.Err()
	}
}

func (t *Tracer) terminate() {
	_ = t.cmd.Process.Signal(syscall.SIGTERM) //nolint:errcheck // Kill follows
	time.Sleep(terminateGrace)
	_ = t.cmd.Process.Kill() //nolint:errcheck // the process may already be gone
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("waiting for tracer: %w", err)
}
