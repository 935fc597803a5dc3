// File: server/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection state. Only the loop goroutine touches a Connection.

package server

import (
	"github.com/eapache/queue"
	"github.com/rs/zerolog"
)

// Connection is one accepted socket.
type Connection struct {
	id    uint64
	fd    int
	peer  string
	phase Phase

	// buf holds received bytes not yet consumed by a complete message.
	buf []byte

	// out queues encoded messages; sent counts bytes of the head already written.
	out  *queue.Queue
	sent int

	closeAfterFlush bool
	wantWrite       bool
	closed          bool

	log zerolog.Logger
}

func newConnection(id uint64, fd int, peer string, log zerolog.Logger) *Connection {
	return &Connection{
		id:   id,
		fd:   fd,
		peer: peer,
		out:  queue.New(),
		log:  log.With().Uint64("conn_id", id).Str("peer", peer).Logger(),
	}
}

// ID returns the connection's identifier.
func (c *Connection) ID() uint64 { return c.id }

// Peer returns the remote address.
func (c *Connection) Peer() string { return c.peer }

// Phase returns the protocol state.
func (c *Connection) Phase() Phase { return c.phase }

// Buffered returns the number of unconsumed inbound bytes.
func (c *Connection) Buffered() int { return len(c.buf) }

// consume drops the first n buffered bytes.
func (c *Connection) consume(n int) {
	rest := copy(c.buf, c.buf[n:])
	c.buf = c.buf[:rest]
}

// enqueue appends msg to the outbound queue.
func (c *Connection) enqueue(msg []byte) {
	if len(msg) > 0 {
		c.out.Add(msg)
	}
}

// pending reports whether outbound bytes remain.
func (c *Connection) pending() bool {
	return c.out != nil && c.out.Length() > 0
}

// compact releases buffer capacity far beyond what is held.
func (c *Connection) compact(keep int) {
	if cap(c.buf) <= keep || cap(c.buf) <= 2*len(c.buf) {
		return
	}
	if len(c.buf) == 0 {
		c.buf = nil
		return
	}
	c.buf = append(make([]byte, 0, len(c.buf)), c.buf...)
}

func (c *Connection) event(e *zerolog.Event) *zerolog.Event {
	return e.Stringer("phase", c.phase)
}
