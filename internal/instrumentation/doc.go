// Package instrumentation provides OpenTelemetry metrics and tracing for
// outboxd.
//
// The Provider wires meter and tracer providers with selectable exporters
// (Prometheus, OTLP, stdout). Metrics covers the domain signals: HTTP
// requests, email sends, OAuth credential events, generation provider
// attempts, and tool invocations. All recording methods are nil-safe so
// call sites never have to guard against disabled instrumentation.
package instrumentation
