// File: device/calendar.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Daily calendar refresh, run as a supervised service.

package device

import (
	"context"
	"strings"
	"time"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/internal/logging"
)

// DatePlaceholder is replaced by the current date as YYYYMMDD.
const DatePlaceholder = "{date}"

// Fetcher downloads a raw bitmap.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BitmapDisplay is the slice of Panel the calendar draws through.
type BitmapDisplay interface {
	Clear() error
	RenderBitmap(bitmap []byte) error
	Show() error
}

// CalendarConfig configures a Calendar.
type CalendarConfig struct {
	URLTemplate   string
	Hour          int
	CheckInterval time.Duration
	Fetcher       Fetcher
	Display       BitmapDisplay
	// Now defaults to time.Now.
	Now func() time.Time
}

// Calendar shows the day's calendar bitmap once at start and again each
// day when the clock enters the configured hour.
type Calendar struct {
	tmpl     string
	hour     int
	interval time.Duration
	fetch    Fetcher
	display  BitmapDisplay
	now      func() time.Time
	lastHour int
}

// NewCalendar creates the service.
func NewCalendar(cfg CalendarConfig) *Calendar {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 10 * time.Minute
	}
	return &Calendar{
		tmpl:     cfg.URLTemplate,
		hour:     cfg.Hour,
		interval: cfg.CheckInterval,
		fetch:    cfg.Fetcher,
		display:  cfg.Display,
		now:      cfg.Now,
		lastHour: -1,
	}
}

// URLFor expands the template for t.
func (c *Calendar) URLFor(t time.Time) string {
	return strings.ReplaceAll(c.tmpl, DatePlaceholder, t.Format("20060102"))
}

// Refresh fetches today's calendar, then clears, draws and shows it as one
// display sequence. The panel is shown even when the fetch fails.
func (c *Calendar) Refresh(ctx context.Context) error {
	url := c.URLFor(c.now())
	bitmap, ferr := c.fetch.Fetch(ctx, url)
	err := c.sequence(func() error {
		if err := c.display.Clear(); err != nil {
			return err
		}
		rerr := ferr
		if rerr == nil {
			rerr = c.display.RenderBitmap(bitmap)
		}
		if err := c.display.Show(); err != nil && rerr == nil {
			rerr = err
		}
		return rerr
	})
	if err != nil {
		return err
	}
	logging.Info().Str("url", url).Int("bytes", len(bitmap)).Msg("calendar refreshed")
	return nil
}

func (c *Calendar) sequence(fn func() error) error {
	if s, ok := c.display.(api.DisplaySequencer); ok {
		return s.Sequence(fn)
	}
	return fn()
}

// Tick refreshes when the clock has just entered the configured hour and
// reports whether it did.
func (c *Calendar) Tick(ctx context.Context) bool {
	h := c.now().Hour()
	due := h == c.hour && c.lastHour != c.hour
	c.lastHour = h
	if !due {
		return false
	}
	if err := c.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Msg("calendar refresh failed")
	}
	return true
}

// Serve implements suture.Service.
func (c *Calendar) Serve(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Msg("initial calendar refresh failed")
	}
	c.lastHour = c.now().Hour()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

func (c *Calendar) String() string { return "calendar" }
