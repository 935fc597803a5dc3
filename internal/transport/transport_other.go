//go:build !linux

// Author: momentics <momentics@gmail.com>
//
// Socket primitives are only implemented for Linux.

package transport

import (
	"fmt"

	"github.com/momentics/inkwire/api"
)

var errUnsupported = fmt.Errorf("transport: %w on this platform", api.ErrNotSupported)

func Listen(addr string, backlog int) (int, error) { return -1, errUnsupported }
func Accept(fd int) (int, string, error)           { return -1, "", errUnsupported }
func Read(fd int, p []byte) (int, error)           { return 0, errUnsupported }
func Write(fd int, p []byte) (int, error)          { return 0, errUnsupported }
func Close(fd int) error                           { return errUnsupported }
func LocalAddr(fd int) (string, error)             { return "", errUnsupported }
func IsTemporary(err error) bool                   { return false }
