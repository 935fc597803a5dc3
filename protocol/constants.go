// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants

package protocol

const (
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA

	// Bit masks
	FinBit  = 0x80
	MaskBit = 0x80

	// 7-bit length field markers
	lenExtended16 = 126
	lenExtended64 = 127

	// MaxTextPayload is the largest payload the 16-bit extended length carries.
	MaxTextPayload = 0xFFFF
)
