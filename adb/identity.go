package adb

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// ParseIdentity reports whether identity has the form <IPv4>:<port> and
// returns its parts. Wired serials never match, which is what lets the
// identity string double as a routing key.
func ParseIdentity(identity string) (ip string, port int, ok bool) {
	host, portStr, err := net.SplitHostPort(identity)
	if err != nil {
		return "", 0, false
	}
	if !isIPv4(host) {
		return "", 0, false
	}
	port, err = strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, false
	}
	return host, port, true
}

// JoinAddress formats the canonical ip:port identity.
func JoinAddress(ip string, port int) string {
	return net.JoinHostPort(ip, strconv.Itoa(port))
}

// ValidateAddress checks that ip is a dotted IPv4 address and port is in range.
func ValidateAddress(ip string, port int) error {
	if !isIPv4(ip) {
		return fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, ip)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, port)
	}
	return nil
}

// isIPv4 accepts dotted-quad addresses only; IPv4-mapped IPv6 spellings such
// as ::ffff:10.0.0.1 do not count.
func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}
