package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/order"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
	"github.com/noah-isme/backend-fundraise/internal/resilience"
)

func sampleOrder() order.Order {
	return order.Order{
		ID:        "ord-1",
		Buyer:     "Marie",
		Items:     []ledger.LineItem{{ProductID: "gourde", Quantity: 150}},
		Total:     pricing.Money(225000),
		CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestHTTPRecorderPostsOrder(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "ord-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"id":"row-12"}`))
	}))
	defer srv.Close()

	rec := order.NewHTTPRecorder(srv.URL, time.Second, nil)
	id, err := rec.Record(context.Background(), sampleOrder())
	require.NoError(t, err)
	require.Equal(t, "row-12", id)
	require.Equal(t, "Marie", got["buyer"])
	require.Equal(t, "2250.00", got["total"])
	require.Equal(t, float64(225000), got["totalMinor"])
	require.Equal(t, []any{map[string]any{"productId": "gourde", "quantity": float64(150)}}, got["items"])
}

func TestHTTPRecorderFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"rejected", http.StatusOK, `{"success":false,"error":"sheet locked"}`, "sheet locked"},
		{"server error", http.StatusInternalServerError, `boom`, "status 500"},
		{"client error", http.StatusBadRequest, `bad`, "status 400"},
		{"not json", http.StatusOK, `<html>`, "decode response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			rec := order.NewHTTPRecorder(srv.URL, time.Second, nil)
			_, err := rec.Record(context.Background(), sampleOrder())
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestHTTPRecorderOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rec := order.NewHTTPRecorder(srv.URL, time.Second, resilience.NewBreaker(1, 0.5, time.Minute))
	_, err := rec.Record(context.Background(), sampleOrder())
	require.Error(t, err)
	_, err = rec.Record(context.Background(), sampleOrder())
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, int32(1), calls.Load())
}

func TestHTTPRecorderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := order.NewHTTPRecorder(url, time.Second, nil).Record(context.Background(), sampleOrder())
	require.Error(t, err)

	var missing *order.HTTPRecorder
	_, err = missing.Record(context.Background(), sampleOrder())
	require.Error(t, err)
}
