// File: httpmsg/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpmsg

import (
	"strconv"
	"strings"
)

// Status codes the device emits.
const (
	StatusOK                  = 200
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
)

var reasons = map[int]string{
	StatusOK:                  "OK",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
}

// Header is one response header line; order is preserved on the wire.
type Header struct {
	Key   string
	Value string
}

// Response is a complete HTTP/1.1 response. The connection is always closed
// after it is written.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}

// NewResponse builds a response carrying the permissive CORS header.
func NewResponse(status int, contentType string, body []byte) *Response {
	r := &Response{Status: status, Body: body}
	if contentType != "" {
		r.Headers = append(r.Headers, Header{"Content-Type", contentType})
	}
	r.Headers = append(r.Headers, Header{"Access-Control-Allow-Origin", "*"})
	return r
}

// OK returns a 200 response.
func OK(contentType string, body []byte) *Response {
	return NewResponse(StatusOK, contentType, body)
}

// Text returns a 200 text/plain response.
func Text(body string) *Response {
	return OK("text/plain; charset=utf-8", []byte(body))
}

// NotFound returns the 404 response.
func NotFound() *Response {
	return NewResponse(StatusNotFound, "text/plain", []byte("404 Not Found"))
}

// MethodNotAllowed returns the 405 response.
func MethodNotAllowed() *Response {
	r := NewResponse(StatusMethodNotAllowed, "text/plain", []byte("405 Method Not Allowed"))
	r.Headers = append(r.Headers, Header{"Allow", "GET, POST"})
	return r
}

// InternalError returns the 500 response.
func InternalError() *Response {
	return NewResponse(StatusInternalServerError, "text/plain", []byte("Internal Server Error"))
}

// Reason returns the reason phrase for the status code.
func (r *Response) Reason() string {
	if s, ok := reasons[r.Status]; ok {
		return s
	}
	return "Status " + strconv.Itoa(r.Status)
}

// Bytes serializes the response, appending Content-Length and Connection: close.
func (r *Response) Bytes() []byte {
	var b strings.Builder
	b.Grow(128 + len(r.Body))
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(r.Status))
	b.WriteByte(' ')
	b.WriteString(r.Reason())
	b.WriteString(CRLF)
	for _, h := range r.Headers {
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString(CRLF)
	}
	b.WriteString("Content-Length: ")
	b.WriteString(strconv.Itoa(len(r.Body)))
	b.WriteString(CRLF)
	b.WriteString("Connection: close")
	b.WriteString(CRLF)
	b.WriteString(CRLF)
	b.Write(r.Body)
	return []byte(b.String())
}
