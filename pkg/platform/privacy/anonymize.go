// Package privacy masks client identifiers before they reach logs.
package privacy

import "net/netip"

// AnonymizeIP reduces an address to its network prefix: /24 for IPv4 and
// /48 for IPv6. IPv4-mapped IPv6 addresses are treated as IPv4.
// Returns "unknown" for an empty input and "invalid" when it does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.String()
}
