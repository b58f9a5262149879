package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/process-timeline/internal/config"
	"github.com/mrzor/process-timeline/internal/logging"
)

func TestInitProvider(t *testing.T) {
	cfg := &config.OTELConfig{
		ServiceName:        "process-timeline-test",
		ResourceAttributes: "deployment.environment=test",
		ExporterEndpoint:   "http://127.0.0.1:4318",
		Insecure:           true,
		Timeout:            time.Second,
	}

	tp, err := InitProvider(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	require.NotNil(t, tp)

	tracer := tp.Tracer(TracerName)
	_, span := tracer.Start(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	// Shutdown tries to flush the probe span to an endpoint that is not
	// listening; only the nil-provider path is guaranteed to succeed.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = ShutdownProvider(ctx, tp)
}

func TestShutdownProvider_Nil(t *testing.T) {
	assert.NoError(t, ShutdownProvider(context.Background(), nil))
}
