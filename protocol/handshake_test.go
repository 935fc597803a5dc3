package protocol_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/protocol"
)

const upgradeRequest = "GET /ws HTTP/1.1\r\n" +
	"Host: device.local\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Version: 13\r\n\r\n"

func TestComputeAcceptKeyRFCVector(t *testing.T) {
	got := protocol.ComputeAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	if got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Errorf("accept = %q", got)
	}
}

func TestIsUpgradeRequest(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"upgrade", upgradeRequest, true},
		{"plain get", "GET / HTTP/1.1\r\nHost: a\r\n\r\n", false},
		{"lowercase value", strings.Replace(upgradeRequest, "websocket", "WebSocket", 1), false},
		{"frame bytes mentioning GET", "\x81\x20GET / Upgrade: websocket\r\n", false},
		{"marker only in body", "POST / HTTP/1.1\r\n\r\nUpgrade: websocket\r\n", false},
	}
	for _, c := range cases {
		if got := protocol.IsUpgradeRequest([]byte(c.in)); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNegotiate(t *testing.T) {
	resp, err := protocol.Negotiate([]byte(upgradeRequest))
	if err != nil {
		t.Fatal(err)
	}
	want := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"
	if string(resp) != want {
		t.Errorf("response:\n%q\nwant:\n%q", resp, want)
	}
}

func TestNegotiateMissingKey(t *testing.T) {
	req := strings.Replace(upgradeRequest, "Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n", "", 1)
	resp, err := protocol.Negotiate([]byte(req))
	if resp != nil {
		t.Error("response produced without key")
	}
	if !errors.Is(err, api.ErrMalformedRequest) {
		t.Errorf("err = %v", err)
	}
}
