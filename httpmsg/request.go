// File: httpmsg/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-pass request parser. The caller guarantees the whole message is
// buffered (see MessageComplete).

package httpmsg

import (
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/momentics/inkwire/api"
)

// Content types with a decoded body representation.
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Request is one parsed HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Version string
	Headers map[string]string // keys as received

	// RawBody is the text after the header block.
	RawBody string

	// Body is the decoded body: the JSON value for application/json, a
	// map[string]string for form posts, RawBody otherwise or when decoding
	// fails.
	Body any
}

// Header returns the value of the header named exactly key.
func (r *Request) Header(key string) string {
	return r.Headers[key]
}

// Parse decodes raw into a Request. It fails with api.ErrMalformedRequest
// when raw is not UTF-8 text or the request line is not exactly
// "METHOD PATH VERSION".
func Parse(raw []byte) (*Request, error) {
	if len(raw) == 0 {
		return nil, api.NewError(api.ErrCodeMalformedRequest, "empty request")
	}
	if !utf8.Valid(raw) {
		return nil, api.NewError(api.ErrCodeMalformedRequest, "request is not valid UTF-8")
	}

	lines := strings.Split(string(raw), CRLF)
	requestLine := strings.TrimSpace(lines[0])
	parts := strings.Split(requestLine, " ")
	if len(parts) != 3 {
		return nil, api.NewError(api.ErrCodeMalformedRequest, "invalid request line").
			WithContext("line", truncate(requestLine, 64))
	}

	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Query:   map[string]string{},
		Version: parts[2],
		Headers: map[string]string{},
	}
	if path, query, ok := strings.Cut(parts[1], "?"); ok {
		req.Path = path
		req.Query = ParseQuery(query)
	}

	bodyStart := -1
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			bodyStart = i + 1
			break
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			req.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	if bodyStart > 0 && bodyStart < len(lines) {
		req.RawBody = strings.Join(lines[bodyStart:], CRLF)
	}
	req.Body = decodeBody(req.Headers["Content-Type"], req.RawBody)
	return req, nil
}

// decodeBody applies the content-type specific decoding, falling back to the
// raw text on any failure.
func decodeBody(contentType, raw string) any {
	if raw == "" {
		return raw
	}
	switch {
	case strings.Contains(contentType, ContentTypeJSON):
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return raw
		}
		return v
	case strings.Contains(contentType, ContentTypeForm):
		return ParseQuery(raw)
	}
	return raw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
