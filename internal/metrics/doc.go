// Package metrics exposes Prometheus collectors for the cache subsystem and the
// Recorder interface the caches report through. Caches default to Nop so they
// can be used without a registry; the host binary injects *Metrics.
package metrics
