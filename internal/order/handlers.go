package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-fundraise/internal/cart"
	"github.com/noah-isme/backend-fundraise/internal/common"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
)

type Handler struct {
	Service *Service
}

type lineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"min=1,max=1000000"`
}

type voucherRequest struct {
	Buyer string        `json:"buyer"`
	Items []lineRequest `json:"items" validate:"required,min=1,dive"`
}

// Create accepts a paper voucher. When the recorder fails the order is still
// returned in the error details with a 502.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	items := make([]ledger.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ledger.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	c := cart.FromItems(items)
	o, err := h.Service.SubmitVoucher(r.Context(), Voucher{Buyer: req.Buyer, Items: c.Lines()})
	if err != nil {
		var upstream *UpstreamPersistenceError
		if errors.As(err, &upstream) {
			common.JSONError(w, upstream.HTTPStatus(), upstream.ErrorCode(), "order accepted locally but not recorded upstream", map[string]any{
				"order": o,
			})
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// List returns the order log, oldest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ParsePage(r, 20, 100)
	orders, total := h.Service.Log.Page(page.Offset(), page.PerPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": page.Meta(total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	o, ok := h.Service.Log.Get(id)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}
