package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient sends single-shot requests through a circuit breaker. It never
// retries: a failed call is reported to the caller as is.
type HTTPClient struct {
	Client  *http.Client
	Breaker *Breaker
	Timeout time.Duration
}

// Do executes req. Transport errors and 5xx responses count as breaker
// failures; 5xx responses are still returned so callers can read the body.
// The per-call timeout covers reading the body and ends when it is closed.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
		return nil, ErrOpenCircuit
	}
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if cl.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cl.Timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		cl.report(ctx, false)
		return nil, fmt.Errorf("resilience: %s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	cl.report(ctx, resp.StatusCode < http.StatusInternalServerError)
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (cl HTTPClient) report(ctx context.Context, ok bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, ok)
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
