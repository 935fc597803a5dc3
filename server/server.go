// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The readiness loop: accept, read, classify, dispatch, write, tear down.

package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/control"
	"github.com/momentics/inkwire/httpmsg"
	"github.com/momentics/inkwire/internal/logging"
	"github.com/momentics/inkwire/internal/transport"
	"github.com/momentics/inkwire/pool"
	"github.com/momentics/inkwire/protocol"
	"github.com/momentics/inkwire/reactor"
)

const maxEvents = 64

var errBufferLimit = fmt.Errorf("%w: pending buffer limit exceeded", api.ErrConnectionIO)

const (
	stateIdle = iota
	stateRunning
	stateClosed
)

// Server owns the listening socket, the poller and every live connection.
type Server struct {
	cfg       Config
	handler   Handler
	newPoller func() (reactor.Poller, error)
	poller    reactor.Poller
	lfd       int
	addr      string
	conns     *registry
	bufs      *pool.BytePool
	metrics   *control.Metrics
	probes    *control.DebugProbes
	log       zerolog.Logger

	nextID uint64
	count  atomic.Int64

	// acceptResume is set while the listener is withdrawn from the poller
	// after a hard accept failure.
	acceptResume time.Time

	mu       sync.Mutex
	state    int
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New binds the listening socket and registers it with a poller. Failure to
// bind is the only fatal condition and is returned here.
func New(cfg Config, h Handler, opts ...Option) (*Server, error) {
	if h == nil {
		return nil, errors.New("server: nil handler")
	}
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:       cfg,
		handler:   h,
		newPoller: reactor.New,
		lfd:       -1,
		conns:     newRegistry(),
		bufs:      pool.NewBytePool(cfg.ReadBufferSize),
		log:       logging.With().Str("component", "server").Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	poller, err := s.newPoller()
	if err != nil {
		return nil, fmt.Errorf("create poller: %w", err)
	}
	s.poller = poller

	lfd, err := transport.Listen(cfg.ListenAddr, cfg.Backlog)
	if err != nil {
		poller.Close()
		return nil, err
	}
	s.lfd = lfd
	if err := poller.Add(lfd, reactor.Readable); err != nil {
		transport.Close(lfd)
		poller.Close()
		return nil, err
	}
	if s.addr, err = transport.LocalAddr(lfd); err != nil {
		s.addr = cfg.ListenAddr
	}

	if s.probes != nil {
		s.probes.RegisterProbe("server.connections", func() any { return s.Connections() })
		s.probes.RegisterProbe("server.listen_addr", func() any { return s.addr })
		s.probes.RegisterProbe("server.read_buffers", func() any {
			gets, allocs := s.bufs.Stats()
			return map[string]uint64{"gets": gets, "allocs": allocs}
		})
	}
	s.log.Info().Str("addr", s.addr).Int("backlog", cfg.Backlog).Msg("listening")
	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.addr }

// Connections returns the number of live connections. Safe from any goroutine.
func (s *Server) Connections() int { return int(s.count.Load()) }

// String names the server as a supervised service.
func (s *Server) String() string { return "inkd-server" }

// Serve runs the loop until ctx is cancelled or Close is called, then
// releases every socket. It returns ctx.Err() on cancellation,
// api.ErrServerClosed after Close, or the poller error that stopped it.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateRunning:
		s.mu.Unlock()
		return ErrAlreadyRunning
	case stateClosed:
		s.mu.Unlock()
		return api.ErrServerClosed
	}
	s.state = stateRunning
	s.mu.Unlock()

	defer func() {
		s.release()
		close(s.done)
	}()

	events := make([]reactor.Event, maxEvents)
	ticker := time.NewTicker(s.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return api.ErrServerClosed
		case <-ticker.C:
			s.maintain()
		default:
		}
		s.resumeAccept(time.Now())

		n, err := s.poller.Wait(events, s.cfg.PollTimeout)
		if err != nil {
			s.log.Error().Err(err).Msg("poll failed")
			return fmt.Errorf("poll: %w", err)
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if ev.Fd == s.lfd {
				s.acceptAll()
				continue
			}
			s.service(ev)
		}
	}
}

// Close stops a running Serve and waits for it to release its sockets, or
// releases them directly if Serve never ran. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	switch s.state {
	case stateIdle:
		s.state = stateClosed
		s.mu.Unlock()
		s.release()
		return nil
	case stateRunning:
		s.mu.Unlock()
		s.stopOnce.Do(func() { close(s.stop) })
		<-s.done
		return nil
	default:
		s.mu.Unlock()
		return nil
	}
}

// release tears down every connection, the listener and the poller.
func (s *Server) release() {
	for _, c := range s.conns.snapshot() {
		s.destroy(c, nil)
	}
	if s.lfd >= 0 {
		s.poller.Remove(s.lfd)
		transport.Close(s.lfd)
		s.lfd = -1
	}
	s.poller.Close()

	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()
	s.log.Info().Str("addr", s.addr).Msg("server stopped")
}

// acceptAll drains the accept queue.
func (s *Server) acceptAll() {
	for {
		fd, peer, err := transport.Accept(s.lfd)
		if err != nil {
			if !transport.IsTemporary(err) {
				s.pauseAccept(err)
			}
			return
		}
		if err := s.poller.Add(fd, reactor.Readable); err != nil {
			s.log.Warn().Err(err).Str("peer", peer).Msg("register connection failed")
			transport.Close(fd)
			continue
		}
		s.nextID++
		c := newConnection(s.nextID, fd, peer, s.log)
		s.conns.add(c)
		s.count.Add(1)
		s.metrics.ConnAccepted()
		c.event(c.log.Info()).Msg("connection accepted")
	}
}

// pauseAccept withdraws the level-triggered listener for one poll interval
// so a persistent failure such as EMFILE does not spin the loop.
func (s *Server) pauseAccept(cause error) {
	if err := s.poller.Modify(s.lfd, 0); err != nil {
		s.log.Error().Err(err).Msg("pause accept failed")
		return
	}
	s.acceptResume = time.Now().Add(s.cfg.PollTimeout)
	s.log.Warn().Err(cause).Dur("backoff", s.cfg.PollTimeout).Msg("accept failed, listener paused")
}

// resumeAccept re-arms a paused listener once its backoff has elapsed.
func (s *Server) resumeAccept(now time.Time) {
	if s.acceptResume.IsZero() || now.Before(s.acceptResume) {
		return
	}
	if err := s.poller.Modify(s.lfd, reactor.Readable); err != nil {
		s.log.Error().Err(err).Msg("resume accept failed")
		return
	}
	s.acceptResume = time.Time{}
}

// service handles one readiness event. A panic in a handler tears down
// only the connection being serviced.
func (s *Server) service(ev reactor.Event) {
	c := s.conns.get(ev.Fd)
	if c == nil {
		s.poller.Remove(ev.Fd)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.event(c.log.Error()).Interface("panic", r).Msg("connection handler panicked")
			s.destroy(c, fmt.Errorf("%w: handler panic", api.ErrConnectionIO))
		}
	}()

	if ev.Writable && c.pending() {
		if !s.flush(c) {
			return
		}
	}
	if ev.Readable || ev.Hangup {
		s.readFrom(c)
	}
}

// readFrom performs one read and processes whatever became complete.
func (s *Server) readFrom(c *Connection) {
	buf := s.bufs.GetBuffer()
	defer s.bufs.PutBuffer(buf)

	n, err := transport.Read(c.fd, buf)
	if err != nil {
		if transport.IsTemporary(err) {
			return
		}
		s.destroy(c, fmt.Errorf("%w: read: %v", api.ErrConnectionIO, err))
		return
	}
	if n == 0 {
		s.destroy(c, nil)
		return
	}
	s.metrics.Read(n)
	if c.closeAfterFlush {
		return
	}

	c.buf = append(c.buf, buf[:n]...)
	if len(c.buf) > s.cfg.MaxBufferBytes {
		s.destroy(c, errBufferLimit)
		return
	}
	s.advance(c)
	s.flush(c)
}

// advance moves c through its phases as far as the buffered bytes allow.
func (s *Server) advance(c *Connection) {
	if c.phase == PhaseAwaitingClassification && !s.classify(c) {
		return
	}
	s.drainFrames(c)
}

// classify waits for one complete request and either upgrades c, returning
// true, or answers it as plain HTTP.
func (s *Server) classify(c *Connection) bool {
	if !httpmsg.HasMethodToken(c.buf) {
		return false
	}
	end, ok := httpmsg.MessageComplete(c.buf)
	if !ok {
		return false
	}
	msg := c.buf[:end]

	if protocol.IsUpgradeRequest(msg) {
		resp, err := protocol.Negotiate(msg)
		if err != nil {
			c.event(c.log.Warn()).Err(err).Msg("handshake rejected")
			s.respondAndClose(c, httpmsg.InternalError())
			return false
		}
		c.consume(end)
		c.enqueue(resp)
		c.phase = PhaseWebSocketOpen
		s.metrics.Upgraded()
		c.event(c.log.Info()).Msg("websocket upgraded")
		if s.cfg.Greeting {
			s.sendText(c, s.handler.Greet(c.id))
		}
		return true
	}

	req, err := httpmsg.Parse(msg)
	c.consume(end)
	if err != nil {
		c.event(c.log.Warn()).Err(err).Msg("malformed request")
		s.metrics.HTTPServed("", httpmsg.StatusInternalServerError)
		s.respondAndClose(c, httpmsg.InternalError())
		return false
	}
	resp := s.handler.HandleHTTP(req)
	if resp == nil {
		resp = httpmsg.InternalError()
	}
	c.event(c.log.Info()).Str("method", req.Method).Str("path", req.Path).Int("status", resp.Status).Msg("http request served")
	s.respondAndClose(c, resp)
	return false
}

// drainFrames dispatches every complete frame and keeps the remainder.
func (s *Server) drainFrames(c *Connection) {
	for len(c.buf) > 0 {
		frame, used, err := protocol.DecodeFrame(c.buf)
		if err != nil {
			size, ok := protocol.FrameSize(c.buf)
			if !ok || size > len(c.buf) {
				return
			}
			c.consume(size)
			s.metrics.FrameDropped()
			c.event(c.log.Debug()).Err(err).Int("bytes", size).Msg("frame dropped")
			continue
		}
		if frame == nil {
			return
		}
		c.consume(used)

		text, ok := frame.Text()
		if !ok {
			s.metrics.FrameDropped()
			c.event(c.log.Debug()).Uint8("opcode", frame.Opcode).Msg("non-text frame dropped")
			continue
		}
		s.metrics.FrameReceived()
		c.event(c.log.Debug()).Str("preview", logging.Preview(frame.Payload)).Msg("command received")
		s.sendText(c, s.handler.HandleCommand(text))
	}
}

func (s *Server) sendText(c *Connection, text string) {
	frame, err := protocol.EncodeTextFrame(text)
	if err != nil {
		c.event(c.log.Error()).Err(err).Int("bytes", len(text)).Msg("reply not sent")
		return
	}
	c.enqueue(frame)
	s.metrics.FrameSent()
}

func (s *Server) respondAndClose(c *Connection, resp *httpmsg.Response) {
	c.enqueue(resp.Bytes())
	c.closeAfterFlush = true
	c.buf = c.buf[:0]
}

// flush writes queued bytes until the socket would block. It reports false
// when c was destroyed.
func (s *Server) flush(c *Connection) bool {
	if c.closed {
		return false
	}
	for c.pending() {
		msg := c.out.Peek().([]byte)
		n, err := transport.Write(c.fd, msg[c.sent:])
		if err != nil {
			if transport.IsTemporary(err) {
				break
			}
			s.destroy(c, fmt.Errorf("%w: write: %v", api.ErrConnectionIO, err))
			return false
		}
		s.metrics.Wrote(n)
		c.sent += n
		if c.sent < len(msg) {
			if n == 0 {
				break
			}
			continue
		}
		c.out.Remove()
		c.sent = 0
	}

	if c.pending() {
		if !c.wantWrite {
			if err := s.poller.Modify(c.fd, reactor.Readable|reactor.Writable); err != nil {
				s.destroy(c, fmt.Errorf("%w: %v", api.ErrConnectionIO, err))
				return false
			}
			c.wantWrite = true
		}
		return true
	}
	if c.closeAfterFlush {
		s.destroy(c, nil)
		return false
	}
	if c.wantWrite {
		if err := s.poller.Modify(c.fd, reactor.Readable); err != nil {
			s.destroy(c, fmt.Errorf("%w: %v", api.ErrConnectionIO, err))
			return false
		}
		c.wantWrite = false
	}
	return true
}

// destroy unregisters and closes c exactly once.
func (s *Server) destroy(c *Connection, cause error) {
	if c.closed {
		return
	}
	c.closed = true
	s.poller.Remove(c.fd)
	transport.Close(c.fd)
	s.conns.remove(c.fd)
	s.count.Add(-1)
	s.metrics.ConnClosed()

	ev := c.log.Info()
	if cause != nil {
		ev = c.log.Warn().Err(cause)
	}
	c.event(ev).Int("discarded", len(c.buf)).Msg("connection closed")
	c.buf = nil
	c.out = nil
}
