package reconcile

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TelemetrySchemaVersion is the OpenTelemetry "telemetry schema" version for
// this package.
const telemetrySchemaVersion = `0.1.0`

// Tracer and Meter singletons for this package.
var (
	tracer trace.Tracer
	meter  metric.Meter
)

// The instruments used in this package.
var (
	evaluationCount    metric.Int64Counter
	evaluationDuration metric.Float64Histogram
)

// Must is a panic-or-return helper for [init].
func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

func init() {
	tracer = otel.Tracer("github.com/quay/cvssmerge/reconcile",
		trace.WithInstrumentationVersion(telemetrySchemaVersion),
	)
	meter = otel.Meter("github.com/quay/cvssmerge/reconcile",
		metric.WithInstrumentationVersion(telemetrySchemaVersion),
	)

	evaluationCount = must(meter.Int64Counter("evaluations",
		metric.WithDescription("The number of vulnerabilities evaluated, by the outcome attribute."),
		metric.WithUnit("{evaluation}"),
	))
	evaluationDuration = must(meter.Float64Histogram("evaluation.duration",
		metric.WithDescription("The time taken to evaluate a single vulnerability."),
		metric.WithUnit("ms"),
	))
}
