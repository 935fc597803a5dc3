// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"time"

	"github.com/momentics/inkwire/httpmsg"
)

// ErrAlreadyRunning is returned by a second concurrent Serve.
var ErrAlreadyRunning = errors.New("server already running")

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr          string        // IPv4 bind address, e.g. "0.0.0.0:80"
	Backlog             int           // listen(2) backlog
	PollTimeout         time.Duration // upper bound of one readiness wait
	ReadBufferSize      int           // bytes read per readiness event
	MaxBufferBytes      int           // pending inbound bytes before a connection is dropped
	MaintenanceInterval time.Duration // period of buffer compaction and gauges
	ReclaimMemory       bool          // return freed heap to the OS on maintenance
	Greeting            bool          // send Handler.Greet after each upgrade
}

// DefaultConfig returns the device defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:          "0.0.0.0:80",
		Backlog:             3,
		PollTimeout:         time.Second,
		ReadBufferSize:      1024,
		MaxBufferBytes:      256 << 10,
		MaintenanceInterval: 5 * time.Second,
		Greeting:            true,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.Backlog <= 0 {
		c.Backlog = d.Backlog
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.MaxBufferBytes < c.ReadBufferSize {
		c.MaxBufferBytes = max(d.MaxBufferBytes, c.ReadBufferSize)
	}
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = d.MaintenanceInterval
	}
	return c
}

// Handler consumes complete messages. All methods run on the loop goroutine.
type Handler interface {
	// HandleHTTP answers one plain HTTP request.
	HandleHTTP(req *httpmsg.Request) *httpmsg.Response

	// HandleCommand answers one WebSocket text payload.
	HandleCommand(text string) string

	// Greet returns the text sent right after connID upgrades.
	Greet(connID uint64) string
}

// Phase is the protocol state of a connection. It only moves forward.
type Phase uint8

const (
	PhaseAwaitingClassification Phase = iota
	PhaseWebSocketOpen
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingClassification:
		return "awaiting_classification"
	case PhaseWebSocketOpen:
		return "websocket_open"
	}
	return "unknown"
}
