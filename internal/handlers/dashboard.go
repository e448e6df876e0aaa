package handlers

import (
	"net/http"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/services"
	"github.com/diewo77/ecotrim/internal/settings"
)

type DashboardHandler struct {
	renderer
	svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService, sp *settings.Provider) *DashboardHandler {
	return &DashboardHandler{renderer: renderer{settings: sp}, svc: svc}
}

// Show: GET /dashboard?from=2025-01-01&to=2025-03-31
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	period, err := periodFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Summary(r.Context(), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, summary)
		return
	}
	h.html(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Summary": summary,
		"From":    r.URL.Query().Get("from"),
		"To":      r.URL.Query().Get("to"),
	})
}
