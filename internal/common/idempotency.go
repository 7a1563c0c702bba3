package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const idemPending = "pending"

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// completed response for a key is stored and replayed to later requests with
// the same key, so a retried write never consolidates twice.
type Idem struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

func (i Idem) key(r *http.Request, header string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + header))
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem:"
	}
	return prefix + hex.EncodeToString(sum[:])
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := i.key(r, header)
		ok, err := i.R.SetNX(ctx, key, idemPending, i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			i.replay(ctx, w, key)
			return
		}

		rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		completed := false
		defer func() {
			bg := context.WithoutCancel(ctx)
			if !completed || retryable(rec.status) {
				_ = i.R.Del(bg, key).Err()
				return
			}
			raw, err := json.Marshal(storedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				_ = i.R.Del(bg, key).Err()
				return
			}
			_ = i.R.Set(bg, key, raw, i.ttl()).Err()
		}()
		next.ServeHTTP(rec, r)
		completed = true
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
		return
	}
	if errors.Is(err, redis.Nil) || raw == idemPending {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "request with this key is in progress", nil)
		return
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.Header().Set("Content-Length", strconv.Itoa(len(stored.Body)))
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

// retryable responses are not kept: the request did not take effect.
func retryable(status int) bool {
	return status == http.StatusInternalServerError || status == http.StatusServiceUnavailable
}

type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

func (c *captureWriter) Unwrap() http.ResponseWriter { return c.ResponseWriter }
