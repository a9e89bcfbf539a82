// Package metrics exposes Prometheus collectors for decisions, analyzer
// latency, outbound retries and notification delivery.
//
// Every method is safe to call on a nil *Metrics, so components can take an
// optional collector without checking for it.
package metrics
