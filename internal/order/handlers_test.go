package order_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/order"
)

func newRouter(f fixture) http.Handler {
	h := &order.Handler{Service: f.svc}
	r := chi.NewRouter()
	r.Post("/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	return r
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return rr.Code, env
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	status, env := do(t, h, http.MethodPost, "/orders",
		`{"buyer":"Marie","items":[{"productId":"gourde","quantity":100},{"productId":"gourde","quantity":50}]}`)
	require.Equal(t, http.StatusCreated, status)
	var o order.Order
	require.NoError(t, json.Unmarshal(env.Data, &o))
	require.NotEmpty(t, o.ID)
	require.Equal(t, int64(150), o.Items[0].Quantity)

	status, env = do(t, h, http.MethodGet, "/orders/"+o.ID, "")
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, h, http.MethodGet, "/orders?page=1&limit=10", "")
	require.Equal(t, http.StatusOK, status)
	var list []order.Order
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	status, env = do(t, h, http.MethodGet, "/orders/missing", "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateOrderErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"blank buyer", `{"buyer":"","items":[{"productId":"tote","quantity":1}]}`, "INVALID_ORDER"},
		{"unknown product", `{"buyer":"Jo","items":[{"productId":"mug","quantity":1}]}`, "INVALID_ORDER"},
		{"zero quantity", `{"buyer":"Jo","items":[{"productId":"tote","quantity":0}]}`, "BAD_REQUEST"},
		{"quantity over line cap", `{"buyer":"Jo","items":[{"productId":"tote","quantity":1000001}]}`, "BAD_REQUEST"},
		{"int64 max quantity", `{"buyer":"Jo","items":[{"productId":"tote","quantity":9223372036854775807},{"productId":"tote","quantity":9223372036854775807}]}`, "BAD_REQUEST"},
		{"no items", `{"buyer":"Jo","items":[]}`, "BAD_REQUEST"},
		{"unknown field", `{"buyer":"Jo","items":[{"productId":"tote","quantity":1}],"x":1}`, "BAD_REQUEST"},
		{"malformed", `{`, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			status, env := do(t, newRouter(f), http.MethodPost, "/orders", tc.body)
			require.Equal(t, http.StatusBadRequest, status)
			require.Equal(t, tc.code, env.Error.Code)
			require.Zero(t, f.svc.Log.Len())
		})
	}
}

func TestCreateOrderUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("timeout")

	status, env := do(t, newRouter(f), http.MethodPost, "/orders",
		`{"buyer":"Ana","items":[{"productId":"tote","quantity":2}]}`)
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "UPSTREAM_PERSISTENCE", env.Error.Code)
	require.Contains(t, env.Error.Details, "order")
	require.Equal(t, 1, f.svc.Log.Len())
}
