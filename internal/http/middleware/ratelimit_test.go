package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// generateRouter guards POST /generate with rl. pre runs before the limiter.
func generateRouter(rl *RateLimiter, pre gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	if pre != nil {
		r.Use(pre)
	}
	r.POST("/generate", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func postGenerate(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestKeyByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/generate", nil)
	c.Request.RemoteAddr = "203.0.113.9:12345"

	if key := KeyByClientIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("key = %q", key)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(2, 0, nil)
	if rl.burst != 1 || rl.key == nil || rl.idleTTL != 10*time.Minute {
		t.Fatalf("defaults not applied: burst=%d key=%v ttl=%v", rl.burst, rl.key != nil, rl.idleTTL)
	}
	if a, b := rl.limiterFor("ip:a"), rl.limiterFor("ip:a"); a != b {
		t.Fatalf("bucket not reused")
	}
	if rl.limiterFor("ip:a") == rl.limiterFor("ip:b") {
		t.Fatalf("distinct keys share a bucket")
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	cases := map[float64]string{5: "1", 1: "1", 0.5: "2", 0.1: "10", 0: "60"}
	for rps, want := range cases {
		if got := NewRateLimiter(rps, 1, nil).retryAfter(); got != want {
			t.Fatalf("rps=%v: Retry-After %q; want %q", rps, got, want)
		}
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	stale := rl.limiterFor("ip:stale")
	clock = clock.Add(5 * time.Minute)
	rl.limiterFor("ip:fresh")
	clock = clock.Add(6 * time.Minute)
	rl.limiterFor("ip:fresh")

	rl.mu.Lock()
	_, hasStale := rl.buckets["ip:stale"]
	n := len(rl.buckets)
	rl.mu.Unlock()
	if hasStale || n != 1 {
		t.Fatalf("after sweep: stale=%v buckets=%d", hasStale, n)
	}
	if rl.limiterFor("ip:stale") == stale {
		t.Fatalf("swept key must get a fresh bucket")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	r := generateRouter(rl, nil)
	base := testutil.ToFloat64(rateLimited.WithLabelValues("/generate"))

	if w := postGenerate(r, "198.51.100.1"); w.Code != http.StatusCreated {
		t.Fatalf("first request = %d", w.Code)
	}
	w := postGenerate(r, "198.51.100.1")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second request = %d Retry-After=%q", w.Code, w.Header().Get("Retry-After"))
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "rate_limited" || body["request_id"] != w.Header().Get(requestIDHeader) {
		t.Fatalf("unexpected body: %v", body)
	}
	if got := testutil.ToFloat64(rateLimited.WithLabelValues("/generate")); got != base+1 {
		t.Fatalf("rate limited counter = %v; want %v", got, base+1)
	}

	if w := postGenerate(r, "198.51.100.2"); w.Code != http.StatusCreated {
		t.Fatalf("other client limited: %d", w.Code)
	}
}

func TestRateLimiter_ReplaysBypass(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)
	replay := func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() }

	postGenerate(generateRouter(rl, nil), "192.0.2.7")
	r := generateRouter(rl, replay)
	for i := 0; i < 3; i++ {
		if w := postGenerate(r, "192.0.2.7"); w.Code != http.StatusCreated {
			t.Fatalf("replay %d = %d", i, w.Code)
		}
	}
	if w := postGenerate(generateRouter(rl, nil), "192.0.2.7"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("fresh request after replays = %d; want 429", w.Code)
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatalf("unset bypass should be false")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("non-bool bypass should be false")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatalf("bypass not reported")
	}
}
