// Package prometheus exposes cookieauth engine metrics to Prometheus.
//
// [Collector] converts each scrape into const counters named
// cookieauth_*_total and the cookieauth_authenticate_latency_seconds
// histogram. [NewHandler] mounts it on a private registry.
package prometheus
