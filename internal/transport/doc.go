// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw non-blocking TCP socket primitives on file descriptors. The
// multiplexer owns every descriptor returned here; nothing in this package
// blocks or spawns goroutines.

package transport
