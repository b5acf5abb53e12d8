// Package instrumentation records scan metrics through the OpenTelemetry
// metric API.
//
// The meter provider is taken from the otel global, so without an SDK
// configured all recording is a no-op. Metrics methods are nil-receiver safe,
// allowing components to run without instrumentation wired in.
package instrumentation
