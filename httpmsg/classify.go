// File: httpmsg/classify.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Byte-level predicates used to classify a connection buffer before it is parsed.

package httpmsg

import (
	"bytes"
	"strconv"
	"strings"
)

// CRLF is the protocol line separator.
const CRLF = "\r\n"

var (
	crlf       = []byte(CRLF)
	headerTerm = []byte("\r\n\r\n")
)

// methods recognized as a request-line method token.
var methods = []string{
	"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS", "PATCH", "CONNECT", "TRACE",
}

// Method returns the method token opening buf. Only the request line is
// inspected, so payload bytes that merely contain "GET" never match.
func Method(buf []byte) (string, bool) {
	for _, m := range methods {
		if len(buf) > len(m) && string(buf[:len(m)]) == m && buf[len(m)] == ' ' {
			return m, true
		}
	}
	return "", false
}

// HasMethodToken reports whether buf starts with an HTTP request line.
func HasMethodToken(buf []byte) bool {
	_, ok := Method(buf)
	return ok
}

// HeaderEnd returns the offset just past the blank line terminating the
// header block, or -1 while it is not buffered yet.
func HeaderEnd(buf []byte) int {
	i := bytes.Index(buf, headerTerm)
	if i < 0 {
		return -1
	}
	return i + len(headerTerm)
}

// HeaderValue scans the header lines of buf for name, matched
// case-sensitively as received, and returns the trimmed value.
func HeaderValue(buf []byte, name string) (string, bool) {
	return headerValue(buf, name, false)
}

func headerValue(buf []byte, name string, fold bool) (string, bool) {
	end := HeaderEnd(buf)
	if end < 0 {
		end = len(buf)
	}
	head := buf[:end]
	first := bytes.Index(head, crlf)
	if first < 0 {
		return "", false
	}
	for _, line := range bytes.Split(head[first+len(crlf):], crlf) {
		if len(line) == 0 {
			break
		}
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(string(line[:colon]))
		if key == name || fold && strings.EqualFold(key, name) {
			return strings.TrimSpace(string(line[colon+1:])), true
		}
	}
	return "", false
}

// MessageComplete reports whether buf holds a whole request: the header
// block plus Content-Length bytes of body. n is the message length.
// An unparsable Content-Length makes the message extend to the end of buf.
// Content-Length is the one header matched regardless of case.
func MessageComplete(buf []byte) (n int, ok bool) {
	end := HeaderEnd(buf)
	if end < 0 {
		return 0, false
	}
	raw, found := headerValue(buf[:end], "Content-Length", true)
	if !found {
		return end, true
	}
	length, err := strconv.Atoi(raw)
	if err != nil || length < 0 {
		return len(buf), true
	}
	if len(buf)-end < length {
		return 0, false
	}
	return end + length, true
}
