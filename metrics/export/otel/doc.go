// Package otel publishes cookieauth engine metrics through an OpenTelemetry
// Meter supplied by the caller.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and a
// cumulative Int64ObservableGauge per latency bucket. A single callback reads
// [cookieauth.Engine.MetricsSnapshot] on each collection.
package otel
