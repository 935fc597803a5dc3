// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the connection loop and the command dispatcher.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inkd"

// Metrics groups every collector the server records into. Each instance owns
// its registry so tests and embedded servers do not collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	ConnectionsClosed   prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	Upgrades            prometheus.Counter
	HTTPRequests        *prometheus.CounterVec
	FramesReceived      prometheus.Counter
	FramesDropped       prometheus.Counter
	FramesSent          prometheus.Counter
	BytesRead           prometheus.Counter
	BytesWritten        prometheus.Counter
	BufferedBytes       prometheus.Gauge
	Commands            *prometheus.CounterVec
	RenderRequests      *prometheus.CounterVec
	BreakerState        prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry. Go runtime and
// process collectors are included.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ConnectionsAccepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted TCP connections",
		}),
		ConnectionsClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Total number of connections torn down",
		}),
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Connections currently registered with the multiplexer",
		}),
		Upgrades: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_upgrades_total",
			Help:      "Total number of completed WebSocket handshakes",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests answered, by method and status code",
		}, []string{"method", "status"}),
		FramesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_received_total",
			Help:      "Text frames decoded and dispatched",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_dropped_total",
			Help:      "Frames consumed without dispatch (non-text or invalid UTF-8)",
		}),
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_sent_total",
			Help:      "Text frames queued for sending",
		}),
		BytesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Bytes read from client sockets",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to client sockets",
		}),
		BufferedBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_bytes",
			Help:      "Unprocessed inbound bytes held across all connections",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "WebSocket commands handled, by type and result",
		}, []string{"cmd_type", "result"}),
		RenderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_requests_total",
			Help:      "Calls to the remote render service, by result",
		}, []string{"result"}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_breaker_state",
			Help:      "Render service circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),
	}
}

func (m *Metrics) ConnAccepted() {
	if m == nil {
		return
	}
	m.ConnectionsAccepted.Inc()
	m.ConnectionsActive.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.ConnectionsClosed.Inc()
	m.ConnectionsActive.Dec()
}

func (m *Metrics) Upgraded() {
	if m != nil {
		m.Upgrades.Inc()
	}
}

func (m *Metrics) HTTPServed(method string, status int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, statusLabel(status)).Inc()
	}
}

func (m *Metrics) FrameReceived() {
	if m != nil {
		m.FramesReceived.Inc()
	}
}

func (m *Metrics) FrameDropped() {
	if m != nil {
		m.FramesDropped.Inc()
	}
}

func (m *Metrics) FrameSent() {
	if m != nil {
		m.FramesSent.Inc()
	}
}

func (m *Metrics) Read(n int) {
	if m != nil && n > 0 {
		m.BytesRead.Add(float64(n))
	}
}

func (m *Metrics) Wrote(n int) {
	if m != nil && n > 0 {
		m.BytesWritten.Add(float64(n))
	}
}

// SetBuffered records the total inbound backlog.
func (m *Metrics) SetBuffered(n int) {
	if m != nil {
		m.BufferedBytes.Set(float64(n))
	}
}

// CommandHandled counts one command; result is "ok" or "error".
func (m *Metrics) CommandHandled(cmdType, result string) {
	if m != nil {
		m.Commands.WithLabelValues(cmdType, result).Inc()
	}
}

// RenderCalled counts one render service call; result is "ok", "error" or "rejected".
func (m *Metrics) RenderCalled(result string) {
	if m != nil {
		m.RenderRequests.WithLabelValues(result).Inc()
	}
}

// SetBreakerState records the render breaker state as 0, 1 or 2.
func (m *Metrics) SetBreakerState(v int) {
	if m != nil {
		m.BreakerState.Set(float64(v))
	}
}

func statusLabel(code int) string {
	switch code {
	case 200:
		return "200"
	case 404:
		return "404"
	case 405:
		return "405"
	case 500:
		return "500"
	}
	return "other"
}
