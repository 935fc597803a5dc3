package server

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestConsumeKeepsRemainder(t *testing.T) {
	c := newConnection(1, -1, "peer", zerolog.Nop())
	c.buf = append(c.buf, "abcdef"...)
	c.consume(4)
	if !bytes.Equal(c.buf, []byte("ef")) || c.Buffered() != 2 {
		t.Errorf("buf = %q", c.buf)
	}
	c.consume(2)
	if c.Buffered() != 0 {
		t.Errorf("buf = %q", c.buf)
	}
}

func TestCompactReleasesSlack(t *testing.T) {
	c := newConnection(1, -1, "peer", zerolog.Nop())
	c.buf = make([]byte, 3, 64<<10)
	copy(c.buf, "xyz")
	c.compact(1024)
	if cap(c.buf) != 3 || string(c.buf) != "xyz" {
		t.Errorf("cap=%d buf=%q", cap(c.buf), c.buf)
	}

	c.buf = make([]byte, 0, 64<<10)
	c.compact(1024)
	if c.buf != nil {
		t.Errorf("empty buffer kept %d bytes of capacity", cap(c.buf))
	}

	small := make([]byte, 10, 512)
	c.buf = small
	c.compact(1024)
	if cap(c.buf) != 512 {
		t.Error("buffer under the keep threshold was reallocated")
	}
}

func TestOutboundQueue(t *testing.T) {
	c := newConnection(7, -1, "peer", zerolog.Nop())
	if c.pending() {
		t.Fatal("new connection has pending output")
	}
	c.enqueue(nil)
	if c.pending() {
		t.Error("empty message queued")
	}
	c.enqueue([]byte("x"))
	if !c.pending() || c.ID() != 7 || c.Peer() != "peer" {
		t.Error("message not queued")
	}
	c.out = nil
	if c.pending() {
		t.Error("destroyed connection reports pending output")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseAwaitingClassification.String() != "awaiting_classification" ||
		PhaseWebSocketOpen.String() != "websocket_open" ||
		Phase(9).String() != "unknown" {
		t.Error("unexpected phase names")
	}
}

func TestRegistry(t *testing.T) {
	r := newRegistry()
	a := &Connection{fd: 5}
	b := &Connection{fd: 6}
	r.add(a)
	r.add(b)
	if r.len() != 2 || r.get(5) != a || r.get(6) != b {
		t.Fatal("lookup failed")
	}
	for _, c := range r.snapshot() {
		r.remove(c.fd)
	}
	if r.len() != 0 || r.get(5) != nil {
		t.Error("remove during snapshot iteration failed")
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{ReadBufferSize: 4096, MaxBufferBytes: 100}.withDefaults()
	if c.ListenAddr != "0.0.0.0:80" || c.Backlog != 3 {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.MaxBufferBytes < c.ReadBufferSize {
		t.Errorf("buffer bound %d below read size %d", c.MaxBufferBytes, c.ReadBufferSize)
	}
}
