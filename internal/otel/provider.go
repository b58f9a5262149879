// Package otel initializes the OpenTelemetry tracer provider used to export
// timelines as spans.
package otel

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/config"
)

// TracerName is the instrumentation scope of exported spans.
const TracerName = "github.com/mrzor/process-timeline"

// logProxy reports the proxy settings the HTTP exporter will pick up.
func logProxy(logger *zap.Logger) {
	httpProxy := os.Getenv("HTTP_PROXY")
	if httpProxy == "" {
		httpProxy = os.Getenv("http_proxy")
	}
	httpsProxy := os.Getenv("HTTPS_PROXY")
	if httpsProxy == "" {
		httpsProxy = os.Getenv("https_proxy")
	}

	if httpProxy != "" || httpsProxy != "" {
		logger.Debug("proxy configured", zap.String("http_proxy", httpProxy), zap.String("https_proxy", httpsProxy))
	} else {
		logger.Debug("no proxy configured")
	}
}

// InitProvider creates a tracer provider exporting over OTLP/HTTP.
//
// The HTTP client honors HTTP_PROXY, HTTPS_PROXY and NO_PROXY through the
// standard net/http transport. Spans are batched; call ShutdownProvider to
// flush them.
func InitProvider(ctx context.Context, cfg *config.OTELConfig, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint := cfg.GetEndpoint()
	logger.Debug("otel configuration",
		zap.String("service_name", cfg.ServiceName),
		zap.String("endpoint", endpoint),
		zap.Bool("insecure", cfg.Insecure),
		zap.String("resource_attributes", cfg.ResourceAttributes))
	logProxy(logger)

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	resourceAttrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if customAttrs := cfg.ParseResourceAttributes(); len(customAttrs) > 0 {
		resourceAttrs = append(resourceAttrs, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, resourceAttrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// ShutdownProvider flushes pending spans and stops the provider.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
