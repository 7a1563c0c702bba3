package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-fundraise/internal/common"
)

// Handler applies Limiter to every request, keyed by Key (client IP when nil).
// Limiter errors let the request through and are passed to OnError.
type Handler struct {
	Limiter Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil {
		return next
	}
	keyFn := h.Key
	if keyFn == nil {
		keyFn = common.ClientIP
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Limiter.Allow(r.Context(), keyFn(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(max(res.Limit, 0)))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		if !res.Allowed {
			headers.Set("Retry-After", strconv.Itoa(max(int(time.Until(res.Reset).Seconds()), 0)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
