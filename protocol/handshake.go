// File: protocol/handshake.go
// Package protocol implements the server side of the RFC6455 opening handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/httpmsg"
)

// Constants used for handshake processing.
const (
	WebSocketGUID         = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	HeaderUpgrade         = "Upgrade"
	HeaderSecWebSocketKey = "Sec-WebSocket-Key"
	ValueWebSocket        = "websocket"
)

// ErrMissingWebSocketKey is returned by Negotiate when the request has no key.
var ErrMissingWebSocketKey = fmt.Errorf("%w: missing %s header", api.ErrMalformedRequest, HeaderSecWebSocketKey)

// ComputeAcceptKey computes the Sec-WebSocket-Accept value from the client's key.
// This implements the algorithm specified in RFC6455 Section 1.3.
func ComputeAcceptKey(clientKey string) string {
	hash := sha1.Sum([]byte(clientKey + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// IsUpgradeRequest reports whether buf opens with a request line and carries
// an "Upgrade: websocket" header line, matched as received.
func IsUpgradeRequest(buf []byte) bool {
	if !httpmsg.HasMethodToken(buf) {
		return false
	}
	v, ok := httpmsg.HeaderValue(buf, HeaderUpgrade)
	return ok && v == ValueWebSocket
}

// Negotiate builds the 101 Switching Protocols response for the upgrade
// request in buf.
func Negotiate(buf []byte) ([]byte, error) {
	key, ok := httpmsg.HeaderValue(buf, HeaderSecWebSocketKey)
	if !ok || key == "" {
		return nil, ErrMissingWebSocketKey
	}
	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + ComputeAcceptKey(key) + "\r\n\r\n"
	return []byte(resp), nil
}
