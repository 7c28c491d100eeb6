// Package otel bootstraps a tracer provider for applications embedding the
// keel runtime. The provider is returned as an explicit handle to pass to
// runtime.WithTracerProvider; it is never installed as the process global,
// so the runtime stays free of ambient tracing state.
package otel

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls tracer provider initialization.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// UseStdout enables the stdout trace exporter (suitable for local
	// dev/tests).
	UseStdout bool
}

// New builds a tracer provider and returns it with its shutdown func.
func New(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "keel"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = os.Getenv("KEEL_VERSION")
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithProcess(),
		sdkresource.WithOS(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	var tp *sdktrace.TracerProvider
	if cfg.UseStdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp,
				sdktrace.WithMaxExportBatchSize(512),
				sdktrace.WithBatchTimeout(200*time.Millisecond),
			),
			sdktrace.WithResource(res),
		)
	} else {
		// No exporter; spans still flow to in-process samplers. Can be
		// extended to OTLP.
		tp = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}

	return tp, tp.Shutdown, nil
}
