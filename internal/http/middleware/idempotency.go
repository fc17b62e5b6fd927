package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets an API client retry POST /generate without
// creating a second idea.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

const defaultIdemMaxLen = 200

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions tunes key validation. Zero values pick the defaults:
// 200 bytes and the token charset [A-Za-z0-9._~-:].
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// valid reports whether key satisfies the options.
func (o IdempotencyOptions) valid(key string) bool {
	maxLen, pat := o.MaxLen, o.Pattern
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	if pat == nil {
		pat = defaultIdemPattern
	}
	return len(key) <= maxLen && pat.MatchString(key)
}

// IdempotencyLookup reports whether key still maps to a stored idea at now.
// Expiry is the lookup's concern. Errors are treated as "not stored".
type IdempotencyLookup func(ctx context.Context, key string, now time.Time) (exists bool, err error)

// GetIdempotencyKey returns the validated key for this request, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether the key was already used for a stored idea.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// IdempotencyValidator checks the Idempotency-Key header. Requests without
// it pass through untouched; malformed keys get 400 bad_idempotency_key.
// A valid key is stored on the context and, when lookup finds it, the
// request is flagged as a replay and exempted from rate limiting. Serving
// the stored idea is left to the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if !opts.valid(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)
		if lookup != nil {
			if ok, err := lookup(c.Request.Context(), key, time.Now().UTC()); err == nil && ok {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
