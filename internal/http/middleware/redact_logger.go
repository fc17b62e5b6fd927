package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RedactOptions adds headers to mask on top of Authorization, Cookie and
// Set-Cookie. Names are matched case-insensitively.
type RedactOptions struct {
	MaskHeaders []string
}

type redactRule struct {
	re   *regexp.Regexp
	mark string
}

// redactRules run in order. UUIDs go first because the phone pattern would
// otherwise consume their digit groups.
var redactRules = []redactRule{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

func scrubPII(s string) string {
	for _, r := range redactRules {
		if s == "" {
			break
		}
		s = r.re.ReplaceAllString(s, r.mark)
	}
	return s
}

// RedactingLogger is Logger for deployments that must keep personal data out
// of the logs. Query strings, header values and collected errors have emails,
// phone numbers and UUIDs replaced; masked headers are logged as
// "[REDACTED]". Bodies are never logged. The request-scoped logger is
// attached the same way, so LoggerFrom works under either.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]bool{"authorization": true, "cookie": true, "set-cookie": true}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = true
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		l := attachLogger(c, routePath(c))

		headers := make(map[string]string, len(c.Request.Header))
		for name, vals := range c.Request.Header {
			if masked[strings.ToLower(name)] {
				headers[name] = "[REDACTED]"
			} else {
				headers[name] = scrubPII(strings.Join(vals, ", "))
			}
		}
		query := scrubPII(c.Request.URL.RawQuery)

		c.Next()

		accessEvent(&l, c, scrubPII).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
