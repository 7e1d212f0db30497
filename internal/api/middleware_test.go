package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{
			name:       "uses first forwarded entry",
			remoteAddr: "10.0.0.1:1234",
			forwarded:  "203.0.113.9, 10.0.0.1",
			want:       "203.0.113.9",
		},
		{
			name:       "uses single forwarded entry",
			remoteAddr: "10.0.0.1:1234",
			forwarded:  "203.0.113.9",
			want:       "203.0.113.9",
		},
		{
			name:       "falls back to remote host",
			remoteAddr: "192.168.1.5:4321",
			want:       "192.168.1.5",
		},
		{
			name:       "keeps unparseable remote addr",
			remoteAddr: "bad-addr",
			want:       "bad-addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientAddress(req); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTransferRateLimitMiddleware_DisabledPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})

	handler := TransferRateLimitMiddleware(nil, 10, nil)(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))

	if !called {
		t.Fatal("expected next handler to run with no limiter configured")
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}
