// File: device/render.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HTTP client for the remote text-to-bitmap service. Every call goes through
// one circuit breaker; three consecutive failures open it for 30s.

package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/control"
	"github.com/momentics/inkwire/internal/logging"
)

const maxRenderResponse = 1 << 20

type renderResponse struct {
	Data string `json:"data"`
}

// RenderClient posts display jobs to the render service and fetches bitmaps.
type RenderClient struct {
	url     string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	metrics *control.Metrics
}

// NewRenderClient creates a client for the service at url. m may be nil.
func NewRenderClient(url string, timeout time.Duration, m *control.Metrics) *RenderClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m.SetBreakerState(0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "render-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			m.SetBreakerState(stateValue(to))
		},
	})
	return &RenderClient{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
		metrics: m,
	}
}

// Render posts job as JSON and returns the decoded bitmap. A string job is
// sent as {"text": job}.
func (c *RenderClient) Render(ctx context.Context, job any) ([]byte, error) {
	if s, ok := job.(string); ok {
		job = map[string]any{"text": s}
	}
	body, err := json.Marshal(job)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeCollaborator, err, "encode render job")
	}
	return c.execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		raw, err := c.do(req)
		if err != nil {
			return nil, err
		}
		var rr renderResponse
		if err := json.Unmarshal(raw, &rr); err != nil {
			return nil, fmt.Errorf("decode render response: %w", err)
		}
		bitmap, err := base64.StdEncoding.DecodeString(rr.Data)
		if err != nil {
			return nil, fmt.Errorf("decode render bitmap: %w", err)
		}
		return bitmap, nil
	})
}

// Fetch downloads a raw bitmap from url.
func (c *RenderClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		return c.do(req)
	})
}

func (c *RenderClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, req.URL, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRenderResponse))
}

func (c *RenderClient) execute(fn func() ([]byte, error)) ([]byte, error) {
	out, err := c.cb.Execute(fn)
	switch {
	case err == nil:
		c.metrics.RenderCalled("ok")
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.RenderCalled("rejected")
	default:
		c.metrics.RenderCalled("error")
	}
	return nil, api.WrapError(api.ErrCodeCollaborator, err, "render service")
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
