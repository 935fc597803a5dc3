// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable memory for the connection loop: fixed-size read buffers and a
// generic typed wrapper over sync.Pool.
package pool
