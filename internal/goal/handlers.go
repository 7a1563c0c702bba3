package goal

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-fundraise/internal/common"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

type Handler struct {
	Service *Service
}

type goalView struct {
	Goal        pricing.Money `json:"goal"`
	GoalDisplay string        `json:"goalDisplay"`
}

type goalRequest struct {
	Goal string `json:"goal" validate:"required"`
}

// Totals handles GET /totals.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.Totals(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": t})
}

// Get handles GET /goal.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	g := h.Service.Tracker.Goal()
	common.JSON(w, http.StatusOK, map[string]any{"data": goalView{Goal: g, GoalDisplay: g.String()}})
}

// Put handles PUT /goal with {"goal":"1000.00"} and answers with fresh totals.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	amount, err := pricing.ParseMoney(req.Goal)
	if err != nil {
		common.WriteError(w, common.BadRequest("goal", "goal must be a decimal amount with at most two decimals", err))
		return
	}
	t, err := h.Service.SetGoal(r.Context(), amount)
	if err != nil {
		if errors.Is(err, ErrNegativeGoal) {
			common.WriteError(w, common.BadRequest("goal", err.Error(), err))
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": t})
}
