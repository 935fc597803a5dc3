// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime telemetry and debug introspection for the device server.
//
// Provides:
//   - Prometheus collectors for connections, frames, HTTP requests and commands
//   - Named debug probes dumped by the maintenance tick
//   - An optional HTTP endpoint exposing the metrics registry
//
// A nil *Metrics is valid and records nothing, so callers never branch on
// whether telemetry is enabled.
package control
