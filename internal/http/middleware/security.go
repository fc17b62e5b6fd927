package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultCSP allows same-origin assets plus the htmx script from unpkg.
const DefaultCSP = "default-src 'self'; script-src 'self' https://unpkg.com; " +
	"style-src 'self'; img-src 'self' data:; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions selects the optional hardening headers.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests (direct TLS
	// or X-Forwarded-Proto: https). Plain HTTP never gets it.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when <= 0.
	HSTSMaxAge time.Duration
	// NoStore disables caching (Cache-Control, Pragma, Expires).
	NoStore bool
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// ContentSecurityPolicy is sent verbatim when non-empty.
	ContentSecurityPolicy string
}

type headerPair struct{ name, value string }

// fixedHeaders returns the headers that do not depend on the request.
func (o SecurityOptions) fixedHeaders() []headerPair {
	hs := []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "same-origin"},
	}
	if o.ContentSecurityPolicy != "" {
		hs = append(hs, headerPair{"Content-Security-Policy", o.ContentSecurityPolicy})
	}
	if o.EnablePolicy {
		hs = append(hs,
			headerPair{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			headerPair{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	if o.NoStore {
		hs = append(hs,
			headerPair{"Cache-Control", "no-store"},
			headerPair{"Pragma", "no-cache"},
			headerPair{"Expires", "0"},
		)
	}
	return hs
}

// SecurityHeaders sets hardening headers before the handler runs. It also
// lists X-Request-ID in Access-Control-Expose-Headers when RequestID ran
// earlier, so browser code can report it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	fixed := opt.fixedHeaders()

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range fixed {
			h.Set(p.name, p.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}
		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
