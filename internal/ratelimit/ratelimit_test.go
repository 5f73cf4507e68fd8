package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowBurstPerKey(t *testing.T) {
	krl := New(PerMinute(1), 3)
	defer krl.Stop()

	for i := 0; i < 3; i++ {
		if !krl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if krl.Allow("10.0.0.1") {
		t.Error("fourth request should be limited")
	}
	if !krl.Allow("10.0.0.2") {
		t.Error("other key should have its own bucket")
	}
	if krl.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", krl.Len())
	}
}

func TestSweepDropsIdleKeys(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	current := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return current }

	krl.Allow("old")
	current = current.Add(DefaultIdleTimeout / 2)
	krl.Allow("fresh")

	current = current.Add(DefaultIdleTimeout/2 + time.Second)
	krl.sweep()

	if krl.Len() != 1 {
		t.Fatalf("expected 1 key after sweep, got %d", krl.Len())
	}
	krl.mu.Lock()
	_, ok := krl.limiters["fresh"]
	krl.mu.Unlock()
	if !ok {
		t.Error("fresh key should survive the sweep")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:4321", nil, "192.0.2.1"},
		{"ipv6 remote addr", "[2001:db8::1]:4321", nil, "2001:db8::1"},
		{"forwarded chain", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "127.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"no port", "192.0.2.9", nil, "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
