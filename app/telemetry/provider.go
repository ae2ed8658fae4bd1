// Package telemetry wires OpenTelemetry for the settlement node. Traces go to an
// OTLP/HTTP collector; executor metrics are bridged into the Prometheus registry
// that the node serves on /metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// ServiceName identifies the node in traces and metrics.
const ServiceName = "settlementd"

// Config selects the collector and sampling for one node.
type Config struct {
	Enabled bool
	// OTLPEndpoint is a full collector URL such as http://localhost:4318/v1/traces.
	// The scheme decides whether the exporter uses TLS.
	OTLPEndpoint   string
	SampleRate     float64
	Environment    string
	ServiceVersion string
}

// Validate rejects an enabled config that cannot reach a collector.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	u, err := url.Parse(c.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("invalid otlp endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("otlp endpoint %q must be an http or https url", c.OTLPEndpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("otlp endpoint %q has no host", c.OTLPEndpoint)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate %v must be between 0 and 1", c.SampleRate)
	}
	return nil
}

// Provider owns the global tracer and meter providers installed for the node.
// A disabled Provider leaves the otel no-op globals in place.
type Provider struct {
	cfg    Config
	traces *tracesdk.TracerProvider
	meters *metricsdk.MeterProvider
}

// NewProvider installs tracing and the Prometheus metrics bridge when enabled.
func NewProvider(cfg Config) (*Provider, error) {
	p := &Provider{cfg: cfg}
	if !cfg.Enabled {
		return p, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	p.traces = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(res),
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(cfg.SampleRate))),
	)

	reader, err := prometheus.New()
	if err != nil {
		_ = p.traces.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	p.meters = metricsdk.NewMeterProvider(
		metricsdk.WithResource(res),
		metricsdk.WithReader(reader),
	)

	otel.SetTracerProvider(p.traces)
	otel.SetMeterProvider(p.meters)
	return p, nil
}

// Enabled reports whether spans and metrics leave the process.
func (p *Provider) Enabled() bool {
	return p.traces != nil
}

// HealthCheck fails when telemetry was requested but never installed.
func (p *Provider) HealthCheck() error {
	if p.cfg.Enabled && (p.traces == nil || p.meters == nil) {
		return errors.New("telemetry enabled but providers are not installed")
	}
	return nil
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.traces != nil {
		if err := p.traces.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meters != nil {
		if err := p.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
