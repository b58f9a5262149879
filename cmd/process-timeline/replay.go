package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/eventstream"
	"github.com/mrzor/process-timeline/internal/session"
)

func newReplayCmd(a *app) *cobra.Command {
	var fromDB bool

	cmd := &cobra.Command{
		Use:   "replay [file | recording-id]",
		Short: "Render a timeline from a saved strace log or a stored recording",
		Long: `Replay feeds previously captured trace lines through the same pipeline as record.

With a file argument ("-" for stdin) the file must hold strace output in the
format record produces. With --from-db the argument is a recording id from the
sessions command; without an argument the latest recording is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess := session.New(a.logger, session.Options{KeepGoing: a.cfg.KeepGoing})

			var err error
			if fromDB {
				err = a.replayRecording(ctx, sess, args)
			} else {
				err = a.replayFile(ctx, sess, args)
			}
			if err != nil {
				return err
			}

			sess.Finish()
			return a.finish(ctx, sess)
		},
	}
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "replay a stored recording instead of a file")

	return cmd
}

func (a *app) replayFile(ctx context.Context, sess *session.Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no trace file specified")
	}

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening trace: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	return eventstream.New(r, sess, a.logger.Named("stream")).Run(ctx)
}

func (a *app) replayRecording(ctx context.Context, sess *session.Session, args []string) error {
	store, closeStore, err := setupStore(a.cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var id int64
	if len(args) == 1 {
		id, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid recording id %q", args[0])
		}
	} else {
		id, err = store.Latest(ctx)
		if err != nil {
			return err
		}
	}

	a.logger.Debug("replaying recording", zap.Int64("recording", id))
	lineNo := 0
	return store.Lines(ctx, id, func(text string) error {
		lineNo++
		if err := sess.HandleLine(text); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		return nil
	})
}
