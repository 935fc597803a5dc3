//go:build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based poller.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is a level-triggered epoll poller. Level triggering lets the
// loop read a bounded chunk per wakeup and be woken again for the rest.
type epollPoller struct {
	epfd int
	raw  []unix.EpollEvent
}

// New constructs the epoll poller.
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollPoller{epfd: epfd}, nil
}

func toEpoll(interest Interest) uint32 {
	var ev uint32
	if interest&Readable != 0 {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// Add adds fd to the epoll interest list.
func (p *epollPoller) Add(fd int, interest Interest) error {
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	return nil
}

// Modify changes the interest set of fd.
func (p *epollPoller) Modify(fd int, interest Interest) error {
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	return nil
}

// Remove deletes fd from the interest list.
func (p *epollPoller) Remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Wait waits for epoll events and fills the result into events slice.
func (p *epollPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]

	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(p.epfd, raw, msec)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := raw[i].Events
		events[i] = Event{
			Fd:       int(raw[i].Fd),
			Readable: ev&unix.EPOLLIN != 0,
			Writable: ev&unix.EPOLLOUT != 0,
			Hangup:   ev&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
		}
	}
	return n, nil
}

// Close closes the epoll instance.
func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
