package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrzor/process-timeline/internal/config"
	"github.com/mrzor/process-timeline/internal/eventprocessor"
	"github.com/mrzor/process-timeline/internal/eventstream"
	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/recording"
	"github.com/mrzor/process-timeline/internal/session"
	"github.com/mrzor/process-timeline/internal/straceproc"
)

type recordFlags struct {
	live       bool
	save       bool
	export     bool
	traceID    string
	stracePath string
	captureEnv bool
}

func newRecordCmd(a *app) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "record [flags] -- command [args...]",
		Short: "Run a command under strace and render its process timeline",
		Long: `Run a command under strace and render its process timeline.

strace often reports a child's execve before its parent's clone has
returned. Such traces stop on the first out-of-order line unless
--keep-going is set, which skips and counts them instead. With --save the
raw trace is kept either way and can be replayed with --keep-going later.`,
		Example: `  process-timeline record -- make -j8
  process-timeline record --live --save -f chrome -o build.json -- ./build.sh
  process-timeline record --export -l 'target=args[1]' -- go test ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			if changed("export") {
				a.cfg.Export = flags.export
			}
			if changed("trace-id") {
				a.cfg.TraceID = flags.traceID
			}
			if changed("strace") {
				a.cfg.Strace.Path = flags.stracePath
			}
			if changed("capture-env") {
				a.cfg.Strace.CaptureEnv = flags.captureEnv
			}
			return a.record(cmd.Context(), args, flags)
		},
	}
	// Everything after the command name belongs to the traced command.
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().BoolVar(&flags.live, "live", false, "print a progress summary on every refresh tick")
	cmd.Flags().BoolVar(&flags.save, "save", false, "store the raw trace in the recordings database")
	cmd.Flags().BoolVar(&flags.export, "export", false, "export processes as OpenTelemetry spans")
	cmd.Flags().StringVar(&flags.traceID, "trace-id", "", "expression computing the trace id from the root process")
	cmd.Flags().StringVar(&flags.stracePath, "strace", "", "strace binary")
	cmd.Flags().BoolVar(&flags.captureEnv, "capture-env", false, "capture process environments (strace -v)")

	return cmd
}

func (a *app) record(ctx context.Context, args []string, flags recordFlags) (err error) {
	command, commandArgs, err := config.ParseCommand(args)
	if err != nil {
		return err
	}

	var (
		recorder eventprocessor.LineRecorder
		rec      *recording.Recording
		exitCode int
		traced   bool
	)
	if flags.save {
		var (
			store      *recording.Store
			closeStore func()
		)
		store, closeStore, err = setupStore(a.cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err = store.Begin(ctx, args)
		if err != nil {
			return err
		}
		recorder = rec
		// Runs before closeStore. A run that stopped early keeps its lines
		// and is stamped with exit code -1.
		defer func() {
			code := -1
			if traced {
				code = exitCode
			}
			if ferr := rec.Finish(context.WithoutCancel(ctx), code); ferr != nil {
				a.logger.Error("finishing recording", zap.Int64("recording", rec.ID()), zap.Error(ferr))
				if err == nil {
					err = ferr
				}
			}
		}()
		a.logger.Info("recording trace", zap.Int64("recording", rec.ID()))
	}

	sess := session.New(a.logger, session.Options{
		KeepGoing: a.cfg.KeepGoing,
		Recorder:  recorder,
	})

	tracer, err := straceproc.Start(straceproc.Options{
		Path:        a.cfg.Strace.Path,
		StringLimit: a.cfg.Strace.StringLimit,
		CaptureEnv:  a.cfg.Strace.CaptureEnv,
	}, command, commandArgs, a.logger.Named("strace"))
	if err != nil {
		return err
	}
	defer func() { _ = tracer.Close() }()

	a.logger.Info("tracing", zap.String("command", command), zap.Int("strace_pid", tracer.Pid()))

	g, gctx := errgroup.WithContext(ctx)
	liveCtx, stopLive := context.WithCancel(gctx)
	defer stopLive()

	stream := eventstream.New(tracer.Trace(), sess, a.logger.Named("stream"))
	stream.Start(gctx)
	g.Go(func() error {
		<-stream.Done()
		stopLive()
		return stream.Wait()
	})

	g.Go(func() error {
		code, err := tracer.Wait(gctx)
		exitCode = code
		return err
	})

	if flags.live {
		g.Go(func() error {
			err := sess.Watch(liveCtx, a.cfg.RefreshInterval, func(l layout.Layout) {
				printLive(sess, l)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	traced = true
	sess.Finish()

	if err := a.finish(ctx, sess); err != nil {
		return err
	}
	if exitCode != 0 {
		return &exitError{code: exitCode}
	}
	return nil
}

// printLive writes a one-line progress summary to stderr.
func printLive(sess *session.Session, l layout.Layout) {
	stats := sess.Stats()
	processes, running := 0, 0
	if l.Root != nil {
		l.Root.Visit(func(p *layout.PlacedNode, _ int) {
			processes++
			if !p.Node.Exited {
				running++
			}
		})
	}
	fmt.Fprintf(os.Stderr, "\r[%s] %d processes, %d running, %d tracks, %d lines ",
		l.TimeMax.Sub(l.TimeMin), processes, running, l.Rows(), stats.Lines)
}
