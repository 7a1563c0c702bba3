package common_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/common"
)

func newIdem(t *testing.T) common.Idem {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute}
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdemReplaysStoredResponse(t *testing.T) {
	var calls atomic.Int32
	h := newIdem(t).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		common.JSON(w, http.StatusCreated, map[string]any{"call": n})
	}))

	first := post(h, "voucher-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := post(h, "voucher-1")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, int32(1), calls.Load())

	other := post(h, "voucher-2")
	require.Equal(t, http.StatusCreated, other.Code)
	require.Equal(t, int32(2), calls.Load())
}

func TestIdemForgetsServerErrors(t *testing.T) {
	var calls atomic.Int32
	h := newIdem(t).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "boom", nil)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}))

	require.Equal(t, http.StatusInternalServerError, post(h, "k").Code)
	require.Equal(t, http.StatusOK, post(h, "k").Code)
	require.Equal(t, int32(2), calls.Load())
}

func TestIdemRejectsInFlightDuplicate(t *testing.T) {
	idem := newIdem(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- post(h, "slow") }()
	<-entered

	dup := post(h, "slow")
	require.Equal(t, http.StatusConflict, dup.Code)
	require.Contains(t, dup.Body.String(), "IDEMPOTENT_REPLAY")

	close(release)
	require.Equal(t, http.StatusNoContent, (<-done).Code)
}

func TestIdemPassThroughWithoutKey(t *testing.T) {
	var calls atomic.Int32
	h := newIdem(t).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	post(h, "")
	post(h, "")
	require.Equal(t, int32(2), calls.Load())
}
