// Package session owns the state of one trace: the process forest, the
// line processor that feeds it, and on-demand layouts.
//
// One goroutine feeds lines through HandleLine while any number of readers
// take snapshots. Layouts are packed from a snapshot outside the lock, so
// packing cost never delays line processing.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/eventprocessor"
	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/proctree"
)

// Options configures a Session.
type Options struct {
	KeepGoing bool
	Recorder  eventprocessor.LineRecorder
	// Clock drives Watch. Defaults to the wall clock.
	Clock clock.Clock
}

// Session serializes forest mutation against snapshots.
type Session struct {
	mu        sync.RWMutex
	builder   *proctree.Builder
	processor *eventprocessor.Processor
	clock     clock.Clock
	logger    *zap.Logger
}

// New creates an empty session.
func New(logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	builder := proctree.NewBuilder(logger.Named("proctree"))
	return &Session{
		builder: builder,
		processor: eventprocessor.NewProcessor(builder, logger.Named("processor"), eventprocessor.Options{
			KeepGoing: opts.KeepGoing,
			Recorder:  opts.Recorder,
		}),
		clock:  opts.Clock,
		logger: logger,
	}
}

// HandleLine applies one trace line.
func (s *Session) HandleLine(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processor.HandleLine(text)
}

// Finish marks the end of the trace.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processor.Finish()
}

// Snapshot returns a copy of the forest that later lines do not affect.
func (s *Session) Snapshot() *proctree.Forest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builder.Snapshot()
}

// Layout packs a fresh snapshot.
func (s *Session) Layout() layout.Layout {
	return layout.Emit(s.Snapshot())
}

// Stats returns the processor counters.
func (s *Session) Stats() eventprocessor.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processor.Stats()
}

// Watch calls fn with a fresh layout every interval until ctx is done.
func (s *Session) Watch(ctx context.Context, interval time.Duration, fn func(layout.Layout)) error {
	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(s.Layout())
		}
	}
}
