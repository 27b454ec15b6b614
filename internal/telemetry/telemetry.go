// Package telemetry wires OpenTelemetry into imp. It is off unless
// IMP_OTEL_ENABLED=true.
//
//	IMP_OTEL_STDOUT=true              print spans and metrics to the command's stderr
//	OTEL_EXPORTER_OTLP_ENDPOINT=...   push metrics over OTLP/HTTP
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// providers holds what Init installed so Shutdown can flush it.
var providers struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Enabled reports whether IMP_OTEL_ENABLED=true.
func Enabled() bool {
	return os.Getenv("IMP_OTEL_ENABLED") == "true"
}

// Init installs the global tracer and meter providers for one imp run.
// Exporters write to w so stdout stays clean for --json. A run is short, so
// spans are exported synchronously and metrics are collected once at Shutdown.
func Init(ctx context.Context, serviceName, version string, w io.Writer) error {
	if !Enabled() {
		return nil
	}

	res := resource.NewSchemaless(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	)
	toStderr := os.Getenv("IMP_OTEL_STDOUT") == "true"
	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if toStderr || !otlpEndpoint {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return fmt.Errorf("telemetry: span exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if toStderr {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return fmt.Errorf("telemetry: metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}
	if otlpEndpoint {
		exp, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	providers.tp = sdktrace.NewTracerProvider(tpOpts...)
	providers.mp = sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetTracerProvider(providers.tp)
	otel.SetMeterProvider(providers.mp)
	return nil
}

// Shutdown flushes and stops whatever Init installed. It is safe to call when
// Init was never reached.
func Shutdown(ctx context.Context) error {
	var errs []error
	if providers.tp != nil {
		errs = append(errs, providers.tp.Shutdown(ctx))
	}
	if providers.mp != nil {
		errs = append(errs, providers.mp.Shutdown(ctx))
	}
	providers.tp, providers.mp = nil, nil
	return errors.Join(errs...)
}
