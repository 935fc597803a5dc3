// Author: momentics <momentics@gmail.com>

package fake

import (
	"fmt"
	"sync"

	"github.com/momentics/inkwire/api"
)

// Resources is an in-memory api.Resources.
type Resources struct {
	mu     sync.Mutex
	page   []byte
	images map[string][]byte

	SaveErr error
}

// NewResources serves page as the index page. A nil page is unavailable.
func NewResources(page []byte) *Resources {
	return &Resources{page: page, images: make(map[string][]byte)}
}

func (r *Resources) Page() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.page == nil {
		return nil, fmt.Errorf("index page: %w", api.ErrResourceUnavailable)
	}
	return r.page, nil
}

func (r *Resources) SaveImage(name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.images[name] = append([]byte(nil), data...)
	return nil
}

// Image returns a saved image.
func (r *Resources) Image(name string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.images[name]
	return b, ok
}
