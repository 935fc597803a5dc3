// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent helpers shared by the socket implementations.

package transport

import (
	"fmt"
	"net"
	"net/netip"
)

// resolveIPv4 splits addr into a bindable IPv4 address and port. An empty
// host binds all interfaces.
func resolveIPv4(addr string) ([4]byte, int, error) {
	var ip4 [4]byte
	tcp, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return ip4, 0, fmt.Errorf("resolve %s: %w", addr, err)
	}
	if tcp.IP != nil {
		v4 := tcp.IP.To4()
		if v4 == nil {
			return ip4, 0, fmt.Errorf("resolve %s: not an IPv4 address", addr)
		}
		copy(ip4[:], v4)
	}
	return ip4, tcp.Port, nil
}

// formatIPv4 renders an address/port pair as host:port.
func formatIPv4(ip [4]byte, port int) string {
	return netip.AddrPortFrom(netip.AddrFrom4(ip), uint16(port)).String()
}

// formatIPv6 renders an address/port pair as [host]:port.
func formatIPv6(ip [16]byte, port int) string {
	return netip.AddrPortFrom(netip.AddrFrom16(ip), uint16(port)).String()
}
