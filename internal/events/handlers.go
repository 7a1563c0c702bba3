package events

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-fundraise/internal/common"
)

// Handler serves the recent event journal for operators.
type Handler struct {
	Journal *Journal
}

// Recent lists journaled events. Query: topic (optional), limit (default 50).
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Journal == nil {
		common.JSON(w, http.StatusOK, map[string]any{"data": []Event{}})
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			common.WriteError(w, common.BadRequest("limit", "limit must be a positive integer", err))
			return
		}
		limit = min(n, 500)
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Journal.Recent(topic, limit)})
}
