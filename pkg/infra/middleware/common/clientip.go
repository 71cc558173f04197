package common

import (
	"net"
	"net/http"
	"strings"

	"github.com/kart-io/logger"
)

// ClientIP extracts the client IP used as the per-caller key.
// Proxy headers (X-Forwarded-For, X-Real-IP) are only trusted when the
// directly connected peer is one of trustedProxies.
func ClientIP(req *http.Request, trustedProxies []string) string {
	remoteIP := RemoteIP(req)

	if !IsTrustedProxy(remoteIP, trustedProxies) {
		return remoteIP
	}

	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		// client, proxy1, proxy2, ...
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return remoteIP
}

// RemoteIP returns the host part of req.RemoteAddr.
func RemoteIP(req *http.Request) string {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return ip
}

// IsTrustedProxy reports whether ip matches one of the trusted IPs or CIDR ranges.
func IsTrustedProxy(ip string, trusted []string) bool {
	if len(trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, entry := range trusted {
		if !strings.Contains(entry, "/") {
			if entry == ip {
				return true
			}
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warnw("invalid CIDR in trusted proxies", "cidr", entry, "error", err.Error())
			continue
		}
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}
