// Package metric provides Prometheus metrics for dashlink.
//
// A Registry owns its own prometheus.Registry (Go and process collectors
// included) so tests and the REPL never collide on the global default.
// All recording methods accept a nil *Registry, which lets components take
// metrics as an optional dependency.
//
// Metrics:
//
//   - dashlink_client_requests_total{method,outcome}
//   - dashlink_client_request_duration_seconds{method}
//   - dashlink_expiry_episodes_total
//   - dashlink_expiry_suppressed_total
//   - dashlink_badger_* storage gauges (registered by the storage package)
package metric
