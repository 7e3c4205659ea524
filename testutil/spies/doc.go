// Package spies provides test doubles for the journal observability interfaces.
//
// The spies capture logging, metrics, and tracing calls so tests can verify
// that handlers and engines emit the expected telemetry without requiring an
// actual backend:
//   - LoggerSpy / ContextualLoggerSpy: capture structured logging calls
//   - MetricsCollectorSpy: captures duration, counter, and value recordings
//   - TracingCollectorSpy: captures started and finished spans
package spies
