package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel/attribute"
)

// OTELConfig is the span export configuration, read from the standard
// OTEL_* environment variables.
type OTELConfig struct {
	ServiceName        string        `env:"OTEL_SERVICE_NAME" envDefault:"process-timeline"`
	ResourceAttributes string        `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:""`
	ExporterEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TracesEndpoint     string        `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:""`
	Insecure           bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	Timeout            time.Duration `env:"OTEL_EXPORTER_OTLP_TIMEOUT" envDefault:"10s"`
}

// ParseOTELConfig reads OTELConfig from the environment.
func ParseOTELConfig() (*OTELConfig, error) {
	var cfg OTELConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	return &cfg, nil
}

// GetEndpoint returns the host:port spans are sent to.
// Priority: OTEL_EXPORTER_OTLP_TRACES_ENDPOINT > OTEL_EXPORTER_OTLP_ENDPOINT > localhost:4318.
// A URL scheme is stripped; an https scheme also turns Insecure off.
func (c *OTELConfig) GetEndpoint() string {
	endpoint := "localhost:4318"
	switch {
	case c.TracesEndpoint != "":
		endpoint = c.TracesEndpoint
	case c.ExporterEndpoint != "":
		endpoint = c.ExporterEndpoint
	}

	if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		c.Insecure = false
		endpoint = rest
	} else {
		endpoint = strings.TrimPrefix(endpoint, "http://")
	}
	return strings.TrimSuffix(endpoint, "/")
}

// ParseResourceAttributes parses OTEL_RESOURCE_ATTRIBUTES.
// Format: key1=value1,key2=value2. Malformed pairs are dropped.
func (c *OTELConfig) ParseResourceAttributes() []attribute.KeyValue {
	if c.ResourceAttributes == "" {
		return nil
	}

	var attrs []attribute.KeyValue
	for _, pair := range strings.Split(c.ResourceAttributes, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if ok && key != "" {
			attrs = append(attrs, attribute.String(key, strings.TrimSpace(value)))
		}
	}
	return attrs
}
