package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerTransitions(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithClock(clk.now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))

	clk.t = clk.t.Add(time.Minute)
	require.True(t, breaker.Allow(ctx), "probe after cool-off")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	require.False(t, breaker.Allow(ctx), "only one probe in flight")

	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(1, 0.5, time.Second).WithClock(clk.now)
	ctx := context.Background()

	breaker.Report(ctx, false)
	clk.t = clk.t.Add(time.Second)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))
}

func TestBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := resilience.NewBreakerMetrics("fundraise", reg)
	clk := &clock{t: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(1, 0.5, time.Second).
		WithClock(clk.now).
		WithMetrics(metrics).
		WithTarget("recorder")
	ctx := context.Background()

	breaker.Report(ctx, false)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.State.WithLabelValues("recorder")))
	clk.t = clk.t.Add(time.Second)
	require.True(t, breaker.Allow(ctx))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.State.WithLabelValues("recorder")))
	breaker.Report(ctx, true)
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.State.WithLabelValues("recorder")))

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Opened.WithLabelValues("recorder")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("recorder", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("recorder", "half_open", "closed")))
}

func TestHTTPClientTripsOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cl := resilience.HTTPClient{
		Client:  srv.Client(),
		Breaker: resilience.NewBreaker(1, 0.5, time.Minute),
		Timeout: time.Second,
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	require.NoError(t, err)

	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	_, err = cl.Do(context.Background(), req)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, int32(1), hits.Load(), "no retries and no call while open")
}

func TestHTTPClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cl := resilience.HTTPClient{Client: srv.Client(), Timeout: 20 * time.Millisecond}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = cl.Do(context.Background(), req)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
