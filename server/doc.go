// Package server
// Author: momentics <momentics@gmail.com>
//
// Single-socket connection multiplexer. One goroutine polls the listening
// socket and every client socket for readiness, accumulates bytes per
// connection, sniffs each connection as plain HTTP or a WebSocket upgrade
// and hands complete messages to a Handler.
//
// Plain HTTP connections are answered once and closed. Upgraded connections
// stay open, and every text frame they send is answered with one text frame.
// Nothing is serviced concurrently, so Handler methods run on the loop and
// a slow handler stalls every connection.
package server
