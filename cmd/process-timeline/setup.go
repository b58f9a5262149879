package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/attributes"
	"github.com/mrzor/process-timeline/internal/config"
	"github.com/mrzor/process-timeline/internal/otel"
	"github.com/mrzor/process-timeline/internal/output"
	"github.com/mrzor/process-timeline/internal/recording"
	"github.com/mrzor/process-timeline/internal/session"
)

// setupOTEL initializes the OTEL provider and returns a tracer and a
// cleanup function that flushes pending spans.
func setupOTEL(ctx context.Context, logger *zap.Logger) (trace.Tracer, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, err
	}

	tp, err := otel.InitProvider(ctx, otelCfg, logger.Named("otel"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			logger.Error("shutting down OTEL provider", zap.Error(err))
		}
	}

	return tp.Tracer(otel.TracerName), cleanup, nil
}

// setupStore opens the recordings database.
func setupStore(cfg *config.Config) (*recording.Store, func(), error) {
	path := cfg.DBPath
	if path == "" {
		path = recording.DefaultPath()
	}

	store, err := recording.Open(path, nil)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// setupLabels compiles the configured custom labels.
func setupLabels(cfg *config.Config, logger *zap.Logger) (*attributes.Evaluator, error) {
	customAttrs, err := cfg.CustomAttributes()
	if err != nil {
		return nil, err
	}
	return attributes.NewEvaluator(customAttrs, logger.Named("attributes"))
}

// openOutput returns the destination for the rendered layout.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f.Close, nil
}

// finish renders the final snapshot of sess and, when enabled, exports it
// as spans.
func (a *app) finish(ctx context.Context, sess *session.Session) error {
	labels, err := setupLabels(a.cfg, a.logger)
	if err != nil {
		return err
	}

	forest := sess.Snapshot()
	stats := sess.Stats()
	a.logger.Info("trace complete",
		zap.Int("lines", stats.Lines),
		zap.Int("processes", forest.Len()),
		zap.Int("unrecognized", stats.Unrecognized),
		zap.Int("skipped", stats.Skipped))

	w, closeOutput, err := openOutput(a.cfg.Output)
	if err != nil {
		return err
	}

	formatter, err := output.New(a.cfg.Format, output.Options{
		Labels: labels,
		Color:  output.ColorEnabled(w, os.Getenv("NO_COLOR") != ""),
		Width:  a.width,
	})
	if err != nil {
		_ = closeOutput()
		return err
	}
	if err := formatter.Format(w, forest); err != nil {
		_ = closeOutput()
		return fmt.Errorf("rendering %s: %w", a.cfg.Format, err)
	}
	if err := closeOutput(); err != nil {
		return err
	}

	if !a.cfg.Export {
		return nil
	}

	tracer, cleanup, err := setupOTEL(ctx, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	traceID, err := attributes.NewTraceIDEvaluator(a.cfg.TraceID)
	if err != nil {
		return err
	}
	n, err := output.NewOTELExporter(tracer, traceID, labels, a.logger.Named("export")).Export(ctx, forest)
	if err != nil {
		return err
	}
	a.logger.Info("exported spans", zap.Int("spans", n))
	return nil
}
