// Package ipchecker restricts internal endpoints to clients from a trusted
// subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/userapi/internal/logger"
)

// IPChecker extracts a client's IP address from a request and tells whether
// it belongs to the trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet in CIDR notation (e.g. "10.0.0.0/8"). An empty
// string yields a checker that lets every client through.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("parse trusted subnet %q: %w", trustedSubnet, err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Enabled reports whether a trusted subnet is configured.
func (checker *IPChecker) Enabled() bool {
	return checker.trustedSubnet != nil
}

// Check reports whether clientIP belongs to the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// ClientIP returns the address of the direct peer. X-Real-IP, then the
// first X-Forwarded-For entry, replace it only when that peer is itself
// inside the trusted subnet, i.e. a trusted proxy.
func (checker *IPChecker) ClientIP(request *http.Request) (net.IP, error) {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("split remote addr %q: %w", request.RemoteAddr, err)
	}

	peer := net.ParseIP(host)
	if !checker.Check(peer) {
		return peer, nil
	}

	if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
		return ip, nil
	}

	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip, nil
		}
	}

	return peer, nil
}

// Middleware answers 403 to clients outside the trusted subnet. Without a
// configured subnet it is a pass-through.
func (checker *IPChecker) Middleware(next http.Handler) http.Handler {
	if !checker.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP, err := checker.ClientIP(r)
		if err != nil || !checker.Check(clientIP) {
			logger.Log.Debugw("client outside trusted subnet", "ip", clientIP, "error", err)
			w.WriteHeader(http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
