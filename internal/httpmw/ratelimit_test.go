package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/task", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("codes[0:2] = %v, want burst of 2 requests admitted", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes[2] = %d, want 429 once burst is exhausted", codes[2])
	}
}

func TestRateLimiter_SeparateKeysHaveSeparateBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, ip := range []string{"192.0.2.1:1", "192.0.2.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/task", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("first request from %s got %d, want 200", ip, w.Code)
		}
	}
}

func TestRateLimiter_Cleanup_ResetsWhenOverCapacity(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	for i := 0; i < 10001; i++ {
		rl.getLimiter(string(rune(i)))
	}
	rl.Cleanup()
	if len(rl.limiters) != 0 {
		t.Errorf("len(limiters) = %d after Cleanup over capacity, want 0", len(rl.limiters))
	}
}

func TestRateLimiter_Cleanup_NoopUnderCapacity(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.getLimiter("a")
	rl.getLimiter("b")
	rl.Cleanup()
	if len(rl.limiters) != 2 {
		t.Errorf("len(limiters) = %d after Cleanup under capacity, want unchanged 2", len(rl.limiters))
	}
}
