//go:build linux

package transport_test

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/momentics/inkwire/internal/transport"
)

func TestListenAcceptReadWrite(t *testing.T) {
	lfd, err := transport.Listen("127.0.0.1:0", 4)
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close(lfd)

	addr, err := transport.LocalAddr(lfd)
	if err != nil || !strings.HasPrefix(addr, "127.0.0.1:") {
		t.Fatalf("LocalAddr = %q, %v", addr, err)
	}

	// Nothing pending yet: accept must not block.
	if _, _, err := transport.Accept(lfd); !transport.IsTemporary(err) {
		t.Fatalf("empty accept err = %v", err)
	}

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	var fd int
	var peer string
	deadline := time.Now().Add(time.Second)
	for {
		fd, peer, err = transport.Accept(lfd)
		if err == nil {
			break
		}
		if !transport.IsTemporary(err) || time.Now().After(deadline) {
			t.Fatalf("accept: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	defer transport.Close(fd)
	if peer != client.LocalAddr().String() {
		t.Errorf("peer = %q, want %q", peer, client.LocalAddr())
	}

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 16)
	var n int
	for n == 0 {
		n, err = transport.Read(fd, buf)
		if err != nil && !transport.IsTemporary(err) {
			t.Fatal(err)
		}
		if time.Now().After(deadline) {
			t.Fatal("read timed out")
		}
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("read %q", buf[:n])
	}

	if _, err := transport.Write(fd, []byte("pong")); err != nil {
		t.Fatal(err)
	}
	client.SetReadDeadline(time.Now().Add(time.Second))
	got := make([]byte, 4)
	if _, err := client.Read(got); err != nil || string(got) != "pong" {
		t.Errorf("client read %q, %v", got, err)
	}
}

func TestListenRejectsBadAddress(t *testing.T) {
	if _, err := transport.Listen("not-an-address", 1); err == nil {
		t.Error("expected error")
	}
}
