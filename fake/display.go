// Author: momentics <momentics@gmail.com>

package fake

import "sync"

// Display is a fake api.Display recording every call in order.
type Display struct {
	seq       sync.Mutex
	mu        sync.Mutex
	sequences int
	calls     []string
	jobs      []any
	files     []string

	ClearErr  error
	ShowErr   error
	RenderErr error
}

// NewDisplay creates a fake display that always succeeds.
func NewDisplay() *Display {
	return &Display{}
}

func (d *Display) Clear() error {
	d.record("clear")
	return d.ClearErr
}

func (d *Display) Show() error {
	d.record("show")
	return d.ShowErr
}

func (d *Display) RenderFromFile(name string) error {
	d.mu.Lock()
	d.calls = append(d.calls, "render_file")
	d.files = append(d.files, name)
	d.mu.Unlock()
	return d.RenderErr
}

func (d *Display) RenderFromJob(job any) error {
	d.mu.Lock()
	d.calls = append(d.calls, "render_job")
	d.jobs = append(d.jobs, job)
	d.mu.Unlock()
	return d.RenderErr
}

// Sequence runs fn exclusively and counts the sequence.
func (d *Display) Sequence(fn func() error) error {
	d.seq.Lock()
	defer d.seq.Unlock()
	d.mu.Lock()
	d.sequences++
	d.mu.Unlock()
	return fn()
}

// Sequences returns how many sequences ran.
func (d *Display) Sequences() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sequences
}

// Calls returns the recorded call names.
func (d *Display) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Jobs returns the jobs passed to RenderFromJob.
func (d *Display) Jobs() []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]any(nil), d.jobs...)
}

// Files returns the names passed to RenderFromFile.
func (d *Display) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

func (d *Display) record(name string) {
	d.mu.Lock()
	d.calls = append(d.calls, name)
	d.mu.Unlock()
}
