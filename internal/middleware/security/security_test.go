package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScreenRejectsScannerPaths(t *testing.T) {
	s := NewScreen()
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, target := range []string{
		"/.env",
		"/wp-admin/setup.php",
		"/api/transactions?q=union%20select",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestScreenAllowsAPITraffic(t *testing.T) {
	s := NewScreen()
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?limit=20", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestClientIPTrustsOnlyKnownProxies(t *testing.T) {
	s := NewScreen()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := s.ClientIP(req); got != "203.0.113.7" {
		t.Errorf("ClientIP behind trusted proxy = %s, want 203.0.113.7", got)
	}

	// The same header from an unknown peer must not be honored.
	req.RemoteAddr = "198.51.100.4:9000"
	if got := s.ClientIP(req); got != "198.51.100.4" {
		t.Errorf("ClientIP from untrusted peer = %s, want the direct address", got)
	}
}

func TestClientIPFallsBackToRealIPHeader(t *testing.T) {
	s := NewScreen()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:8080"
	req.Header.Set("X-Real-IP", "203.0.113.9")
	if got := s.ClientIP(req); got != "203.0.113.9" {
		t.Errorf("ClientIP = %s, want 203.0.113.9", got)
	}
}

func TestAddTrustedProxyRejectsBadCIDR(t *testing.T) {
	s := NewScreen()
	if err := s.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("expected an error for a malformed CIDR")
	}
	if err := s.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}
}
