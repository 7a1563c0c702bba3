package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-fundraise/internal/common"
)

// Probe checks one dependency.
type Probe struct {
	Name    string
	Check   func(ctx context.Context) error
	Timeout time.Duration
}

// Handler serves liveness and readiness endpoints. Readiness fails while the
// server is draining or when any probe fails.
type Handler struct {
	Probes   []Probe
	draining atomic.Bool
}

// SetDraining flips readiness off during graceful shutdown.
func (h *Handler) SetDraining(v bool) { h.draining.Store(v) }

func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "draining"})
		return
	}
	checks := make(map[string]string, len(h.Probes))
	healthy := true
	for _, p := range h.Probes {
		if p.Check == nil {
			continue
		}
		if err := runProbe(r.Context(), p); err != nil {
			checks[p.Name] = err.Error()
			healthy = false
			continue
		}
		checks[p.Name] = "ok"
	}
	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	common.JSON(w, code, map[string]any{"status": status, "checks": checks})
}

func runProbe(ctx context.Context, p Probe) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Check(ctx)
}
