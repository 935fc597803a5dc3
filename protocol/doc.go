// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the subset of the WebSocket wire protocol (RFC 6455) the device speaks.
//
// Includes:
//   - Text frame decoding straight from partially filled connection buffers
//   - Client masking, 7-bit and 16-bit payload lengths
//   - Unmasked server frame encoding
//   - Upgrade detection and Sec-WebSocket-Accept negotiation
//
// Fragmentation, control frames and 64-bit lengths are not spoken; such
// frames are reported so the caller can drop them.
package protocol
