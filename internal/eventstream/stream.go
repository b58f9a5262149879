package eventstream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// LineHandler consumes trace lines in order.
type LineHandler interface {
	HandleLine(text string) error
}

// Stream reads lines from a producer and dispatches them to a handler,
// one at a time and in order.
type Stream struct {
	reader  *bufio.Reader
	handler LineHandler
	logger  *zap.Logger

	done chan struct{}
	err  error
}

// New creates a new Stream with the given line source and handler.
func New(reader io.Reader, handler LineHandler, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		// strace lines can hold megabytes of hex-escaped argv
		reader:  bufio.NewReaderSize(reader, 1<<20),
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start begins reading lines in a goroutine.
// It returns immediately and processes lines in the background until the
// source is exhausted, the handler fails or the context is cancelled.
// Use Done and Wait for the outcome.
func (s *Stream) Start(ctx context.Context) {
	go func() {
		s.err = s.Run(ctx)
		close(s.done)
	}()
}

// Wait blocks until a started stream finishes and returns its error.
func (s *Stream) Wait() error {
	<-s.done
	return s.err
}

// Done is closed when a started stream finishes.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Run processes lines synchronously until end of input. A handler error
// stops the stream and is returned; end of input returns nil.
func (s *Stream) Run(ctx context.Context) error {
	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		text, err := s.reader.ReadString('\n')
		if text != "" {
			lineNo++
			if herr := s.handler.HandleLine(strings.TrimRight(text, "\r\n")); herr != nil {
				return fmt.Errorf("line %d: %w", lineNo, herr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				s.logger.Debug("trace stream ended", zap.Int("lines", lineNo))
				return nil
			}
			return fmt.Errorf("reading trace: %w", err)
		}
	}
}
