//go:build linux

package server

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sys/unix"

	"github.com/momentics/inkwire/control"
	"github.com/momentics/inkwire/httpmsg"
	"github.com/momentics/inkwire/reactor"
)

// recordingPoller counts registrations and never reports readiness.
type recordingPoller struct {
	added, removed map[int]int
	interest       map[int]reactor.Interest
	closed         bool
}

func newRecordingPoller() (reactor.Poller, error) {
	return &recordingPoller{added: map[int]int{}, removed: map[int]int{}, interest: map[int]reactor.Interest{}}, nil
}

func (p *recordingPoller) Add(fd int, in reactor.Interest) error {
	p.added[fd]++
	p.interest[fd] = in
	return nil
}
func (p *recordingPoller) Modify(fd int, in reactor.Interest) error         { p.interest[fd] = in; return nil }
func (p *recordingPoller) Remove(fd int) error                              { p.removed[fd]++; return nil }
func (p *recordingPoller) Wait([]reactor.Event, time.Duration) (int, error) { return 0, nil }
func (p *recordingPoller) Close() error                                     { p.closed = true; return nil }

type nopHandler struct{}

func (nopHandler) HandleHTTP(*httpmsg.Request) *httpmsg.Response { return httpmsg.NotFound() }
func (nopHandler) HandleCommand(string) string                   { return "" }
func (nopHandler) Greet(uint64) string                           { return "" }

func TestDestroyRunsOnce(t *testing.T) {
	m := control.NewMetrics()
	s, err := New(Config{ListenAddr: "127.0.0.1:0"}, nopHandler{}, WithMetrics(m), WithPoller(newRecordingPoller))
	if err != nil {
		t.Fatal(err)
	}
	p := s.poller.(*recordingPoller)

	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	defer unix.Close(fds[1])

	c := newConnection(1, fds[0], "pipe", s.log)
	s.conns.add(c)
	s.count.Add(1)
	c.enqueue([]byte("queued"))

	s.destroy(c, nil)
	s.destroy(c, nil)
	if p.removed[fds[0]] != 1 {
		t.Errorf("removed %d times", p.removed[fds[0]])
	}
	if s.Connections() != 0 || s.conns.len() != 0 {
		t.Errorf("connections = %d, registry = %d", s.Connections(), s.conns.len())
	}
	if v := testutil.ToFloat64(m.ConnectionsClosed); v != 1 {
		t.Errorf("closed counter = %v", v)
	}
	if s.flush(c) {
		t.Error("flush on a destroyed connection reported success")
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !p.closed || s.lfd != -1 {
		t.Error("idle Close did not release the poller and listener")
	}
}

func TestHardAcceptFailurePausesListener(t *testing.T) {
	s, err := New(Config{ListenAddr: "127.0.0.1:0", PollTimeout: 50 * time.Millisecond}, nopHandler{}, WithPoller(newRecordingPoller))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	p := s.poller.(*recordingPoller)

	// accept(2) on a pipe fails with ENOTSOCK, which retrying cannot fix.
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	lfd := s.lfd
	s.lfd = fds[0]
	defer func() { s.lfd = lfd }()

	s.acceptAll()
	if p.interest[fds[0]] != 0 || s.acceptResume.IsZero() {
		t.Fatalf("listener not paused: interest=%v resume=%v", p.interest[fds[0]], s.acceptResume)
	}
	s.resumeAccept(s.acceptResume.Add(-time.Millisecond))
	if p.interest[fds[0]] != 0 {
		t.Error("listener re-armed before the backoff elapsed")
	}
	s.resumeAccept(s.acceptResume)
	if p.interest[fds[0]] != reactor.Readable || !s.acceptResume.IsZero() {
		t.Errorf("listener not re-armed: interest=%v", p.interest[fds[0]])
	}
}
