// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness poller interface.

package reactor

import "time"

// Interest selects the readiness conditions a descriptor is watched for.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Poller reports readiness of registered descriptors. It is not safe for
// concurrent use; the multiplexer loop is its only caller.
type Poller interface {
	// Add registers fd for the given interest set.
	Add(fd int, interest Interest) error

	// Modify replaces the interest set of a registered fd.
	Modify(fd int, interest Interest) error

	// Remove unregisters fd.
	Remove(fd int) error

	// Wait blocks for at most timeout and fills events with ready
	// descriptors. A negative timeout blocks indefinitely. An interrupted
	// wait returns (0, nil).
	Wait(events []Event, timeout time.Duration) (n int, err error)

	// Close releases the poller.
	Close() error
}

// Event contains readiness information returned by Wait.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	Hangup   bool // error or hang-up condition on the descriptor
}
