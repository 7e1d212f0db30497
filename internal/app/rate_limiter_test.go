package app

import "testing"

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name     string
		ttlMs    int64
		windowMs int64
		want     int
	}{
		{
			name:     "rounds partial seconds up",
			ttlMs:    1500,
			windowMs: 60000,
			want:     2,
		},
		{
			name:     "exact seconds pass through",
			ttlMs:    3000,
			windowMs: 60000,
			want:     3,
		},
		{
			name:     "zero ttl clamps to one second",
			ttlMs:    0,
			windowMs: 60000,
			want:     1,
		},
		{
			name:     "sub-second ttl clamps to one second",
			ttlMs:    400,
			windowMs: 60000,
			want:     1,
		},
		{
			name:     "missing ttl falls back to window",
			ttlMs:    -1,
			windowMs: 60000,
			want:     60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryAfterSeconds(tt.ttlMs, tt.windowMs); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
