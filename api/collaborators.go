// File: api/collaborators.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Contracts of the device services the dispatcher drives. Implementations
// live in package device; test doubles in package fake.

package api

// Display is the e-paper panel. Each call may fail with a rendering error,
// which callers surface to the client and never treat as fatal.
type Display interface {
	// Clear resets the frame buffer to white.
	Clear() error

	// Show pushes the frame buffer to the panel.
	Show() error

	// RenderFromFile draws a stored 1-bpp bitmap resource.
	RenderFromFile(name string) error

	// RenderFromJob draws a display job (decoded JSON, form map or raw text).
	RenderFromJob(job any) error
}

// DisplaySequencer is implemented by displays shared between goroutines.
// Sequence runs fn, a clear/render/show sequence, with exclusive use of the
// display so concurrent sequences never interleave.
type DisplaySequencer interface {
	Sequence(fn func() error) error
}

// Network exposes station status, credential storage and device restart.
type Network interface {
	// CurrentStationAddress returns the station IPv4 address, "0.0.0.0" when offline.
	CurrentStationAddress() string

	// PersistWifiCredentials stores the credentials used at next boot.
	PersistWifiCredentials(ssid, password string) error

	// RestartDevice schedules a restart and returns immediately.
	RestartDevice()
}

// Resources is the device's small file store.
type Resources interface {
	// Page returns the static index page.
	Page() ([]byte, error)

	// SaveImage persists a binary image resource under name.
	SaveImage(name string, data []byte) error
}
