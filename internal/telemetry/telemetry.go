// internal/telemetry/telemetry.go
//
// OpenTelemetry tracing bootstrap.
//
// Exporter selection:
//
//	OTEL_EXPORTER_OTLP_ENDPOINT set → OTLP over HTTP
//	stdout == true                  → pretty-printed spans on stdout
//	otherwise                       → provider with no exporter (spans dropped)
//
// The returned shutdown func flushes pending spans and must be called,
// with a bounded context, before exit.
package telemetry

import (
	"context"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// EndpointEnv enables the OTLP exporter when non-empty.
const EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init installs a global tracer provider and W3C propagators.
func Init(ctx context.Context, serviceName string, stdout bool, log *zap.SugaredLogger) (Shutdown, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if serviceName == "" {
		serviceName = "frontdoor"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	exporter := "none"
	switch {
	case os.Getenv(EndpointEnv) != "":
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
		exporter = "otlp"
	case stdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
		exporter = "stdout"
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	log.Infow("telemetry online", "service", serviceName, "exporter", exporter)
	return tp.Shutdown, nil
}

// Middleware wraps next in a server span named after the operation.
func Middleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}
