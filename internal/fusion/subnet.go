package fusion

import (
	"net/netip"
	"strings"
)

// UnknownSubnet is returned for addresses that cannot be parsed.
const UnknownSubnet = "unknown/24"

// DeriveSubnet classifies an IP address string into its report grouping:
// the /24 network for IPv4, the /64 prefix for IPv6. The IPv6 form keeps the
// first four colon-separated groups of the input string as written.
func DeriveSubnet(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return UnknownSubnet
	}

	if addr.Is4() {
		octets := strings.Split(ip, ".")
		return strings.Join(octets[:3], ".") + ".0/24"
	}

	groups := strings.Split(ip, ":")
	if len(groups) > 4 {
		groups = groups[:4]
	}
	return strings.Join(groups, ":") + "::/64"
}
