//go:build linux

// internal/transport/transport_linux.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux sockets via golang.org/x/sys/unix.

package transport

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Listen creates a non-blocking IPv4 TCP socket bound to addr and listening
// with the given backlog.
func Listen(addr string, backlog int) (int, error) {
	ip, port, err := resolveIPv4(addr)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: ip}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen %s: %w", addr, err)
	}
	return fd, nil
}

// Accept takes one pending connection off the listening socket. The new
// descriptor is non-blocking; peer is its remote host:port.
func Accept(fd int) (int, string, error) {
	for {
		nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, "", err
		}
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		return nfd, sockaddrString(sa), nil
	}
}

// Read reads available bytes into p. A zero count with nil error means the
// peer closed its side.
func Read(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// Write writes as much of p as the socket accepts without blocking.
// MSG_NOSIGNAL turns a write to a closed peer into EPIPE instead of SIGPIPE.
func Write(fd int, p []byte) (int, error) {
	for {
		n, err := unix.SendmsgN(fd, p, nil, nil, unix.MSG_NOSIGNAL)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// Close closes the descriptor.
func Close(fd int) error {
	return unix.Close(fd)
}

// LocalAddr returns the bound host:port of fd.
func LocalAddr(fd int) (string, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", fmt.Errorf("getsockname: %w", err)
	}
	return sockaddrString(sa), nil
}

// IsTemporary reports whether err means "try again when ready".
func IsTemporary(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return formatIPv4(a.Addr, a.Port)
	case *unix.SockaddrInet6:
		return formatIPv6(a.Addr, a.Port)
	}
	return "unknown"
}
