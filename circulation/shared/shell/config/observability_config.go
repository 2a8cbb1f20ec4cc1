package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// ServiceName identifies the circulation service in exported telemetry.
	ServiceName = "circulation"

	metricExportInterval = 5 * time.Second
)

// ObservabilityProviders holds the OpenTelemetry providers built from a Config.
// TracerProvider is nil without tracing, MeterProvider and MetricsReader are nil without metrics.
type ObservabilityProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	MetricsReader  *sdkmetric.ManualReader
	Resource       *resource.Resource
}

// NewObservabilityProviders creates the providers the Config asks for and registers them globally,
// together with the W3C trace context propagator.
//
// Metrics are always collected by a ManualReader for the /metrics snapshot. With an OTLPEndpoint
// they are additionally pushed there periodically. Traces are batched to the OTLPEndpoint.
// The OTLP gRPC exporters connect lazily, so a collector that is down does not fail start-up.
func NewObservabilityProviders(ctx context.Context, cfg Config) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating the telemetry resource: %w", err)
	}

	providers := &ObservabilityProviders{Resource: res}

	if cfg.Tracing {
		traceExporter, traceErr := otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if traceErr != nil {
			return nil, fmt.Errorf("creating the trace exporter: %w", traceErr)
		}

		providers.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(providers.TracerProvider)
		otel.SetTextMapPropagator(propagation.TraceContext{})
	}

	if cfg.Metrics {
		providers.MetricsReader = sdkmetric.NewManualReader()
		meterOptions := []sdkmetric.Option{
			sdkmetric.WithReader(providers.MetricsReader),
			sdkmetric.WithResource(res),
		}

		if cfg.OTLPEndpoint != "" {
			metricExporter, metricErr := otlpmetricgrpc.New(
				ctx,
				otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if metricErr != nil {
				_ = providers.Shutdown(ctx)
				return nil, fmt.Errorf("creating the metric exporter: %w", metricErr)
			}

			meterOptions = append(meterOptions, sdkmetric.WithReader(
				sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricExportInterval)),
			))
		}

		providers.MeterProvider = sdkmetric.NewMeterProvider(meterOptions...)
		otel.SetMeterProvider(providers.MeterProvider)
	}

	return providers, nil
}

// Shutdown flushes and stops the providers that were created.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
