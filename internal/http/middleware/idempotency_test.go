package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type idemSeen struct {
	key       string
	hasKey    bool
	replay    bool
	bypass    bool
	reachedUp bool
}

// runIdem sends POST /generate with key (if non-empty) through the validator
// and reports what the handler observed.
func runIdem(t *testing.T, opts IdempotencyOptions, lookup IdempotencyLookup, key string) (*httptest.ResponseRecorder, idemSeen) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(IdempotencyValidator(opts, lookup))

	var seen idemSeen
	r.POST("/generate", func(c *gin.Context) {
		seen.reachedUp = true
		seen.key, seen.hasKey = GetIdempotencyKey(c)
		seen.replay = IsReplay(c)
		seen.bypass = IsRateBypass(c)
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/generate", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("unset key: got %q %v", k, ok)
	}
	if IsReplay(c) {
		t.Fatalf("unset replay should be false")
	}

	c.Set(ctxKeyIdemKey, 123)
	c.Set(ctxKeyIdemReplay, "yes")
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	if IsReplay(c) {
		t.Fatalf("non-bool replay must read as false")
	}
}

func TestIdempotencyValidator_Rejects(t *testing.T) {
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long for custom max", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"too long for default max", IdempotencyOptions{}, strings.Repeat("k", 201)},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"space", IdempotencyOptions{}, "two words"},
		{"slash", IdempotencyOptions{}, "a/b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			lookup := func(context.Context, string, time.Time) (bool, error) {
				called = true
				return true, nil
			}
			w, seen := runIdem(t, tc.opts, lookup, tc.key)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", w.Code)
			}
			if seen.reachedUp || called {
				t.Fatalf("handler or lookup ran for an invalid key")
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["request_id"] == "" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_Accepts(t *testing.T) {
	var gotKey string
	var gotNow time.Time
	hit := func(_ context.Context, key string, now time.Time) (bool, error) {
		gotKey, gotNow = key, now
		return true, nil
	}
	miss := func(context.Context, string, time.Time) (bool, error) { return false, nil }
	broken := func(context.Context, string, time.Time) (bool, error) { return true, errors.New("db down") }

	cases := []struct {
		name   string
		lookup IdempotencyLookup
		key    string
		replay bool
	}{
		{"no header", hit, "", false},
		{"no lookup", nil, "abc-123", false},
		{"miss", miss, "key-1", false},
		{"hit", hit, "5f1c6a8e-4a4e-4c55-9e3e-0f5b8c1f2d11", true},
		{"lookup error counts as miss", broken, "k:err", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotKey, gotNow = "", time.Time{}
			w, seen := runIdem(t, IdempotencyOptions{}, tc.lookup, tc.key)
			if w.Code != http.StatusCreated {
				t.Fatalf("status = %d; want 201", w.Code)
			}
			if seen.key != tc.key || seen.hasKey != (tc.key != "") {
				t.Fatalf("key = %q %v; want %q", seen.key, seen.hasKey, tc.key)
			}
			if seen.replay != tc.replay || seen.bypass != tc.replay {
				t.Fatalf("replay/bypass = %v/%v; want %v", seen.replay, seen.bypass, tc.replay)
			}
		})
	}

	// The hit case saw the key and a UTC clock.
	runIdem(t, IdempotencyOptions{}, hit, "k-9")
	if gotKey != "k-9" || gotNow.IsZero() || gotNow.Location() != time.UTC {
		t.Fatalf("lookup args: key=%q now=%v", gotKey, gotNow)
	}
}
