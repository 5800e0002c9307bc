package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumeopt/internal/config"
	"resumeopt/internal/errors"
)

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	limiter := NewRateLimiter(60, time.Minute, 3, testLogger())
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if !limiter.Allow("ip:10.0.0.1") {
			t.Fatalf("request %d within burst capacity was rejected", i+1)
		}
	}

	if limiter.Allow("ip:10.0.0.1") {
		t.Error("request beyond burst capacity was allowed")
	}

	// A different key gets its own bucket
	if !limiter.Allow("ip:10.0.0.2") {
		t.Error("request from a fresh key was rejected")
	}
}

func TestRateLimiterStats(t *testing.T) {
	limiter := NewRateLimiter(120, time.Minute, 5, testLogger())
	defer limiter.Close()

	limiter.Allow("api:key-1")
	limiter.Allow("api:key-2")

	stats := limiter.GetStats()
	if stats["active_limiters"] != 2 {
		t.Errorf("active_limiters = %v, want 2", stats["active_limiters"])
	}
	if stats["burst_capacity"] != 5 {
		t.Errorf("burst_capacity = %v, want 5", stats["burst_capacity"])
	}
	if stats["rate_per_minute"] != 120.0 {
		t.Errorf("rate_per_minute = %v, want 120", stats["rate_per_minute"])
	}
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{
			name:     "api key header preferred",
			headers:  map[string]string{"X-API-Key": "secret-key"},
			byAPIKey: true,
			byIP:     true,
			want:     "api:secret-key",
		},
		{
			name:     "bearer token fallback",
			headers:  map[string]string{"Authorization": "Bearer token-abc"},
			byAPIKey: true,
			want:     "api:token-abc",
		},
		{
			name: "ip fallback when no key",
			byIP: true,
			want: "ip:192.0.2.10",
		},
		{
			name: "no limiting dimensions",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/optimize", nil)
			r.RemoteAddr = "192.0.2.10:54321"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getRateLimitKey(r, tt.byAPIKey, tt.byIP); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "x-forwarded-for first ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "remote addr fallback",
			remoteAddr: "192.0.2.20:9999",
			want:       "192.0.2.20",
		},
		{
			name:       "invalid forwarded header ignored",
			remoteAddr: "192.0.2.30:9999",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "192.0.2.30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/stats", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := NewServer(&config.Config{}, ServerConfig{
		APIKeys: []string{"valid-key"},
	}, testLogger())

	handler := srv.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{
			name:       "missing key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid key",
			headers:    map[string]string{"X-API-Key": "wrong"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid header key",
			headers:    map[string]string{"X-API-Key": "valid-key"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid bearer token",
			headers:    map[string]string{"Authorization": "Bearer valid-key"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/optimize", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddlewareNoKeysConfigured(t *testing.T) {
	srv := NewServer(&config.Config{}, ServerConfig{}, testLogger())

	handler := srv.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodPost, "/score", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("open server rejected request: status = %d", w.Code)
	}
}

func TestParseJSONRequest(t *testing.T) {
	t.Run("rejects wrong content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/keywords", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")

		var req KeywordsRequest
		if err := parseJSONRequest(r, &req); err == nil {
			t.Error("expected error for non-JSON content type")
		}
	})

	t.Run("parses valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/keywords", strings.NewReader(`{"jobDescription":"golang engineer"}`))
		r.Header.Set("Content-Type", "application/json")

		var req KeywordsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			t.Fatalf("parseJSONRequest() error = %v", err)
		}
		if req.JobDescription != "golang engineer" {
			t.Errorf("JobDescription = %q", req.JobDescription)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/keywords", strings.NewReader(`{"jobDescription":`))
		r.Header.Set("Content-Type", "application/json")

		var req KeywordsRequest
		if err := parseJSONRequest(r, &req); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	srv := NewServer(&config.Config{}, ServerConfig{MaxRequestSize: 32}, testLogger())

	middleware := srv.requestSizeLimitMiddleware()
	handler := middleware(func(w http.ResponseWriter, r *http.Request) {
		var req KeywordsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	body := `{"jobDescription":"` + strings.Repeat("x", 100) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/keywords", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized request: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestNewServerAPIKeyMap(t *testing.T) {
	srv := NewServer(&config.Config{}, ServerConfig{
		APIKeys: []string{"one", "", "two"},
	}, testLogger())

	if len(srv.APIKeys) != 2 {
		t.Errorf("APIKeys map size = %d, want 2 (empty keys dropped)", len(srv.APIKeys))
	}
	if !srv.APIKeys["one"] || !srv.APIKeys["two"] {
		t.Error("configured API keys missing from lookup map")
	}
}
