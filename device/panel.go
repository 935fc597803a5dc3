// File: device/panel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory 1-bpp framebuffer, horizontal bytes with the most significant bit
// leftmost (MONO_HLSB). A set bit is white.

package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/momentics/inkwire/api"
)

// FrameSink receives the framebuffer on Show.
type FrameSink interface {
	WriteFrame(frame []byte) error
}

// Renderer turns a display job into a 1-bpp bitmap.
type Renderer interface {
	Render(ctx context.Context, job any) ([]byte, error)
}

// ImageSource loads stored bitmaps by name.
type ImageSource interface {
	ReadImage(name string) ([]byte, error)
}

// DefaultJob is rendered when a display job carries no body.
var DefaultJob = map[string]any{
	"text":     "inkwire",
	"fontsize": 30,
	"align":    -1,
}

// PanelConfig configures a Panel.
type PanelConfig struct {
	Width, Height int
	Sink          FrameSink
	Images        ImageSource
	// Renderer may be nil, in which case RenderFromJob fails.
	Renderer      Renderer
	RenderTimeout time.Duration
}

// Panel implements api.Display over a framebuffer.
type Panel struct {
	seq      sync.Mutex
	mu       sync.Mutex
	width    int
	height   int
	buf      []byte
	sink     FrameSink
	images   ImageSource
	renderer Renderer
	timeout  time.Duration
}

// NewPanel allocates a white framebuffer.
func NewPanel(cfg PanelConfig) (*Panel, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width%8 != 0 {
		return nil, fmt.Errorf("panel: invalid geometry %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Sink == nil || cfg.Images == nil {
		return nil, fmt.Errorf("panel: sink and image source are required")
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 10 * time.Second
	}
	p := &Panel{
		width:    cfg.Width,
		height:   cfg.Height,
		buf:      make([]byte, cfg.Width*cfg.Height/8),
		sink:     cfg.Sink,
		images:   cfg.Images,
		renderer: cfg.Renderer,
		timeout:  cfg.RenderTimeout,
	}
	p.fill(0xFF)
	return p, nil
}

// Sequence runs fn while holding the panel exclusively. Clear, Render* and
// Show stay callable inside fn.
func (p *Panel) Sequence(fn func() error) error {
	p.seq.Lock()
	defer p.seq.Unlock()
	return fn()
}

// Clear paints the framebuffer white.
func (p *Panel) Clear() error {
	p.mu.Lock()
	p.fill(0xFF)
	p.mu.Unlock()
	return nil
}

func (p *Panel) fill(v byte) {
	for i := range p.buf {
		p.buf[i] = v
	}
}

// Show hands a snapshot of the framebuffer to the sink.
func (p *Panel) Show() error {
	frame := p.Frame()
	if err := p.sink.WriteFrame(frame); err != nil {
		return fmt.Errorf("panel show: %w", err)
	}
	return nil
}

// RenderBitmap copies a row-major 1-bpp bitmap onto the framebuffer from the
// top-left corner. Bytes beyond the panel are ignored.
func (p *Panel) RenderBitmap(bitmap []byte) error {
	p.mu.Lock()
	copy(p.buf, bitmap)
	p.mu.Unlock()
	return nil
}

// RenderFromFile draws a stored bitmap.
func (p *Panel) RenderFromFile(name string) error {
	data, err := p.images.ReadImage(name)
	if err != nil {
		return err
	}
	return p.RenderBitmap(data)
}

// RenderFromJob asks the renderer for a bitmap and draws it. A nil job
// renders DefaultJob.
func (p *Panel) RenderFromJob(job any) error {
	if p.renderer == nil {
		return fmt.Errorf("panel: no render service configured: %w", api.ErrNotSupported)
	}
	if job == nil {
		job = DefaultJob
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	bitmap, err := p.renderer.Render(ctx, job)
	if err != nil {
		return err
	}
	return p.RenderBitmap(bitmap)
}

// Frame returns a copy of the framebuffer.
func (p *Panel) Frame() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.buf...)
}

// Pixel reports whether (x, y) is white.
func (p *Panel) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := y*p.width + x
	return p.buf[idx/8]&(0x80>>(idx%8)) != 0
}

// FileSink writes every shown frame to one file, replacing it atomically.
type FileSink struct {
	path string
}

// NewFileSink targets path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) WriteFrame(frame []byte) error {
	return writeFileAtomic(s.path, frame, 0o644)
}
