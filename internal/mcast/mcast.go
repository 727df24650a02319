// Package mcast resolves control/status/data group addresses, falling back
// to ka9q-radio's hash-derived multicast address when a configured group is
// a bare hostname with no resolvable multicast A record.
package mcast

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// fnv1 implements FNV-1 (not FNV-1a): hash = (hash * prime) XOR byte,
// matching ka9q-radio's fnv1hash() in misc.c.
func fnv1(data []byte) uint32 {
	hash := uint32(0x811c9dc5)
	for _, b := range data {
		hash *= 0x01000193
		hash ^= uint32(b)
	}
	return hash
}

// Derive generates an administratively-scoped 239.0.0.0/8 multicast address
// from a hostname, matching ka9q-radio's make_maddr() in multicast.c. It
// avoids the 239.0.0.0/24 and 239.128.0.0/24 ranges, which alias onto the
// same Ethernet multicast MAC address as other /24s in the block.
func Derive(hostname string) net.IP {
	hash := fnv1([]byte(hostname))
	addr := (uint32(239) << 24) | (hash & 0xffffff)

	if addr&0x007fff00 == 0 {
		addr |= (addr & 0xff) << 8
	}
	if addr&0x007fff00 == 0 {
		addr |= 0x00100000
	}

	return net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

// Resolve resolves a "host:port" group address via DNS first, falling back
// to Derive when DNS fails. This lets a deployment name its groups with
// plain hostnames ("status.local:5006") and get a stable multicast address
// even without a multicast-capable DNS zone.
func Resolve(addrStr string) (*net.UDPAddr, error) {
	if addr, err := net.ResolveUDPAddr("udp", addrStr); err == nil {
		return addr, nil
	}

	parts := strings.SplitN(addrStr, ":", 2)
	if len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("mcast: invalid address %q", addrStr)
	}
	hostname := parts[0]
	port := 0
	if len(parts) > 1 {
		p, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("mcast: invalid port in %q: %w", addrStr, err)
		}
		port = p
	}

	return &net.UDPAddr{IP: Derive(hostname), Port: port}, nil
}
