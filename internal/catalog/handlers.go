package catalog

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-fundraise/internal/common"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// VolumeFunc reports the current cumulative volume per product id.
type VolumeFunc func(ctx context.Context) (map[string]int64, error)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	catalog *Catalog
	volumes VolumeFunc
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog *Catalog
	Volumes VolumeFunc
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog, volumes: cfg.Volumes}
}

// ProductView is a product annotated with its live tier state.
type ProductView struct {
	Product
	Volume     int64             `json:"volume"`
	ActiveTier pricing.Tier      `json:"activeTier"`
	NextUnit   pricing.Breakdown `json:"nextUnit"`
}

// View prices the next unit of p at the volume it would bring the ledger to.
func View(p Product, volume int64) ProductView {
	return ProductView{
		Product:    p,
		Volume:     volume,
		ActiveTier: p.Resolve(volume),
		NextUnit:   p.Split(volume+1, 1),
	}
}

// List handles GET /api/v1/catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	volumes, err := h.currentVolumes(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	products := h.catalog.Products()
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, View(p, volumes[p.ID]))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Get handles GET /api/v1/catalog/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	p, ok := h.catalog.Product(id)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	volumes, err := h.currentVolumes(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": View(p, volumes[p.ID])})
}

func (h *Handler) currentVolumes(ctx context.Context) (map[string]int64, error) {
	if h.volumes == nil {
		return map[string]int64{}, nil
	}
	return h.volumes(ctx)
}
