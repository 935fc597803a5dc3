// File: protocol/frame_codec.go
// Package protocol implements the minimal text-frame codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Frames are decoded straight from a connection buffer that may hold a
// partial frame, exactly one frame, or several frames back to back.

package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/momentics/inkwire/api"
)

var (
	// ErrExtendedLength is returned for frames using the 64-bit length form.
	ErrExtendedLength = fmt.Errorf("%w: 64-bit payload length", api.ErrUnsupportedFrame)

	// ErrPayloadTooLarge is returned when a payload does not fit a 16-bit length.
	ErrPayloadTooLarge = fmt.Errorf("%w: payload exceeds %d bytes", api.ErrUnsupportedFrame, MaxTextPayload)
)

// WSFrame represents a decoded WebSocket frame.
type WSFrame struct {
	IsFinal    bool    // FIN bit
	Opcode     byte    // Operation code
	Masked     bool    // Whether the frame was masked
	PayloadLen int     // Declared payload length
	MaskKey    [4]byte // Valid when Masked
	Payload    []byte  // Unmasked payload, owned by the frame
}

// Text returns the payload when f is a text frame carrying valid UTF-8.
func (f *WSFrame) Text() (string, bool) {
	if f.Opcode != OpcodeText || !utf8.Valid(f.Payload) {
		return "", false
	}
	return string(f.Payload), true
}

// DecodeFrame parses the first frame in raw and returns it with the number
// of bytes it occupies. While raw does not yet hold the whole frame it
// returns (nil, 0, nil) and the caller waits for more bytes. A frame using
// the 64-bit length form yields ErrExtendedLength and consumes nothing.
// Frames of every opcode are returned; callers drop what they do not speak.
func DecodeFrame(raw []byte) (*WSFrame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil
	}
	fin := raw[0]&FinBit != 0
	opcode := raw[0] & 0x0F
	masked := raw[1]&MaskBit != 0
	length := int(raw[1] & 0x7F)
	offset := 2

	switch length {
	case lenExtended16:
		if len(raw) < offset+2 {
			return nil, 0, nil
		}
		length = int(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case lenExtended64:
		return nil, 0, ErrExtendedLength
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil
		}
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	total := offset + length
	if len(raw) < total {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	copy(payload, raw[offset:total])
	if masked {
		unmaskInPlace(payload, maskKey)
	}

	return &WSFrame{
		IsFinal:    fin,
		Opcode:     opcode,
		Masked:     masked,
		PayloadLen: length,
		MaskKey:    maskKey,
		Payload:    payload,
	}, total, nil
}

// FrameSize returns the total length of the frame opening raw, header
// included, for every length form. ok is false until the header is buffered.
// It lets callers skip frames DecodeFrame refuses to decode.
func FrameSize(raw []byte) (size int, ok bool) {
	if len(raw) < 2 {
		return 0, false
	}
	offset := 2
	length := uint64(raw[1] & 0x7F)
	switch length {
	case lenExtended16:
		if len(raw) < offset+2 {
			return 0, false
		}
		length = uint64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case lenExtended64:
		if len(raw) < offset+8 {
			return 0, false
		}
		length = binary.BigEndian.Uint64(raw[offset:])
		offset += 8
	}
	if raw[1]&MaskBit != 0 {
		offset += 4
	}
	if length > uint64(maxInt-offset) {
		return maxInt, true
	}
	return offset + int(length), true
}

const maxInt = int(^uint(0) >> 1)

// EncodeTextFrame serializes text as a single unmasked server-to-client frame.
func EncodeTextFrame(text string) ([]byte, error) {
	return AppendTextFrame(nil, text)
}

// AppendTextFrame appends the unmasked text frame for text to dst.
func AppendTextFrame(dst []byte, text string) ([]byte, error) {
	plen := len(text)
	if plen > MaxTextPayload {
		return dst, ErrPayloadTooLarge
	}
	if plen < lenExtended16 {
		dst = append(dst, FinBit|OpcodeText, byte(plen))
	} else {
		dst = append(dst, FinBit|OpcodeText, lenExtended16, 0, 0)
		binary.BigEndian.PutUint16(dst[len(dst)-2:], uint16(plen))
	}
	return append(dst, text...), nil
}

// unmaskInPlace applies XOR on payload using maskKey.
func unmaskInPlace(buf []byte, key [4]byte) {
	for i := 0; i < len(buf); i++ {
		buf[i] ^= key[i%4]
	}
}
