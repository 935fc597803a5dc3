// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package httpmsg parses single-shot HTTP/1.1 requests out of a connection
// buffer and serializes the small set of responses the device sends.
//
// It is deliberately not a general HTTP implementation: there is no
// keep-alive, no chunked transfer coding and no routing. The multiplexer
// calls MessageComplete until the full message is buffered, then Parse once.
package httpmsg
