// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/inkwire/control"
	"github.com/momentics/inkwire/reactor"
)

// Option customizes server initialization.
type Option func(*Server)

// WithMetrics records connection and frame telemetry into m.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithDebugProbes registers server probes on dp and logs a dump of dp at
// debug level on every maintenance tick.
func WithDebugProbes(dp *control.DebugProbes) Option {
	return func(s *Server) {
		s.probes = dp
	}
}

// WithPoller replaces the platform poller constructor.
func WithPoller(newPoller func() (reactor.Poller, error)) Option {
	return func(s *Server) {
		s.newPoller = newPoller
	}
}
