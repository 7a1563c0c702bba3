package checkout

import (
	"net/http"

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

type cartRequest struct {
	Items []lineRequest `json:"items" validate:"required,min=1,dive"`
}

func decodeCart(r *http.Request) ([]ledger.LineItem, error) {
	var req cartRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	c := &cart.Cart{}
	for _, it := range req.Items {
		c.Add(it.ProductID, it.Quantity)
	}
	return c.Lines(), nil
}

// Checkout handles POST /checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	items, err := decodeCart(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.Service.Checkout(r.Context(), items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

// Quote handles POST /checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	items, err := decodeCart(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.Service.Quote(r.Context(), items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}
