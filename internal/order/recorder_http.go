package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/resilience"
)

// HTTPRecorder posts orders to an external record store (for example a
// spreadsheet web app) and expects {"success": true, "id": "..."} back.
type HTTPRecorder struct {
	Endpoint string
	Client   resilience.HTTPClient
}

// NewHTTPRecorder builds a recorder with a traced transport guarded by breaker.
func NewHTTPRecorder(endpoint string, timeout time.Duration, breaker *resilience.Breaker) *HTTPRecorder {
	return &HTTPRecorder{
		Endpoint: endpoint,
		Client: resilience.HTTPClient{
			Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker: breaker,
			Timeout: timeout,
		},
	}
}

type recordRequest struct {
	Buyer      string            `json:"buyer"`
	Items      []ledger.LineItem `json:"items"`
	Total      string            `json:"total"`
	TotalMinor int64             `json:"totalMinor"`
	OrderID    string            `json:"orderId"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type recordResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

func (r *HTTPRecorder) Record(ctx context.Context, o Order) (string, error) {
	if r == nil || strings.TrimSpace(r.Endpoint) == "" {
		return "", errors.New("http recorder: endpoint not configured")
	}
	body, err := json.Marshal(recordRequest{
		Buyer:      o.Buyer,
		Items:      o.Items,
		Total:      o.Total.String(),
		TotalMinor: int64(o.Total),
		OrderID:    o.ID,
		CreatedAt:  o.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", o.ID)

	resp, err := r.Client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("http recorder: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("http recorder: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out recordResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("http recorder: decode response: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "rejected"
		}
		return "", fmt.Errorf("http recorder: %s", msg)
	}
	return out.ID, nil
}
