package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// securedResponse serves GET / through SecurityHeaders; pre runs first.
func securedResponse(opt SecurityOptions, pre gin.HandlerFunc, req *http.Request) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/", func(c *gin.Context) { c.Data(http.StatusOK, "text/html", []byte("<p>board</p>")) })
	if req == nil {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := securedResponse(SecurityOptions{}, nil, nil)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "same-origin",
	}
	for k, v := range want {
		if h.Get(k) != v {
			t.Fatalf("%s = %q; want %q", k, h.Get(k), v)
		}
	}
	for _, k := range []string{
		"Content-Security-Policy", "Permissions-Policy", "X-Permitted-Cross-Domain-Policies",
		"Cache-Control", "Pragma", "Expires", "Strict-Transport-Security", "Access-Control-Expose-Headers",
	} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_Optional(t *testing.T) {
	h := securedResponse(SecurityOptions{
		NoStore:               true,
		EnablePolicy:          true,
		ContentSecurityPolicy: DefaultCSP,
	}, nil, nil)

	if h.Get("Content-Security-Policy") != DefaultCSP {
		t.Fatalf("CSP = %q", h.Get("Content-Security-Policy"))
	}
	if !strings.Contains(DefaultCSP, "https://unpkg.com") || !strings.Contains(DefaultCSP, "frame-ancestors 'none'") {
		t.Fatalf("DefaultCSP must allow htmx and forbid framing: %q", DefaultCSP)
	}
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("no-store headers missing: %v", h)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")

	cases := []struct {
		name string
		opt  SecurityOptions
		req  *http.Request
		want string
	}{
		{"disabled", SecurityOptions{HSTSMaxAge: time.Hour}, direct, ""},
		{"plain http", SecurityOptions{EnableHSTS: true}, plain, ""},
		{"tls custom age", SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}, direct,
			"max-age=86400; includeSubDomains; preload"},
		{"proxy default age", SecurityOptions{EnableHSTS: true}, proxied,
			"max-age=15552000; includeSubDomains; preload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := securedResponse(tc.opt, nil, tc.req)
			if got := h.Get("Strict-Transport-Security"); got != tc.want {
				t.Fatalf("HSTS = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		want     string
	}{
		{"none yet", "", "X-Request-ID"},
		{"appended", "Idempotency-Replayed", "Idempotency-Replayed, X-Request-ID"},
		{"already listed", "X-Request-ID, HX-Retarget", "X-Request-ID, HX-Retarget"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				c.Header(requestIDHeader, "rid-1")
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
				c.Next()
			}
			h := securedResponse(SecurityOptions{}, pre, nil)
			if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("expose = %q; want %q", got, tc.want)
			}
		})
	}
}
