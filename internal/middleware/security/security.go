// Package security screens incoming requests for scanner traffic and
// resolves client addresses behind trusted proxies.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// scannerFragments are path and query substrings that only show up in
// automated scanner traffic; no API route or parameter contains them.
var scannerFragments = []string{
	"../", "..\\", ".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "etc/passwd", "cmd.exe",
	"<script", "javascript:", "union select", "eval(",
}

const maxURLLength = 2048

// Screen rejects requests matching known scanner patterns and resolves the
// caller's IP. Forwarded headers are honored only when the direct peer is a
// trusted proxy, so per-IP accounting cannot be steered by a spoofed header.
type Screen struct {
	trustedProxies []*net.IPNet
}

func NewScreen() *Screen {
	return &Screen{trustedProxies: privateNetworks()}
}

func privateNetworks() []*net.IPNet {
	cidrs := []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, network, err := net.ParseCIDR(c)
		if err != nil {
			panic("parse builtin proxy CIDR " + c + ": " + err.Error())
		}
		nets = append(nets, network)
	}
	return nets
}

// AddTrustedProxy widens the set of peers whose forwarded headers are
// honored.
func (s *Screen) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid proxy CIDR %s: %w", cidr, err)
	}
	s.trustedProxies = append(s.trustedProxies, network)
	return nil
}

// Suspicious reports whether the request looks like scanner traffic rather
// than an API call.
func (s *Screen) Suspicious(r *http.Request) bool {
	if len(r.URL.String()) > maxURLLength {
		return true
	}

	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	for _, frag := range scannerFragments {
		if strings.Contains(path, frag) || strings.Contains(query, frag) {
			return true
		}
	}
	return false
}

// Middleware drops suspicious requests before they reach the router.
func (s *Screen) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Suspicious(r) {
			slog.WarnContext(r.Context(), "Rejected suspicious request",
				"path", r.URL.Path,
				"client_ip", s.ClientIP(r))
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP resolves the caller's address, consulting X-Forwarded-For and
// X-Real-IP only when the direct peer is a trusted proxy.
func (s *Screen) ClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	peer := net.ParseIP(direct)
	if peer == nil || !s.trustedProxy(peer) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return direct
}

func (s *Screen) trustedProxy(ip net.IP) bool {
	for _, network := range s.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
