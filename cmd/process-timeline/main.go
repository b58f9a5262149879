// process-timeline traces a command tree with strace and lays out its
// processes as non-overlapping tracks on a timeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitError carries the traced command's exit status out of a run that
// otherwise succeeded.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("traced command exited with status %d", e.code)
}
