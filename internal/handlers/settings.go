package handlers

import (
	"net/http"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/middleware"
	"github.com/diewo77/ecotrim/internal/settings"
)

// SettingsHandler edits the business profile.
type SettingsHandler struct {
	renderer
}

func NewSettingsHandler(sp *settings.Provider) *SettingsHandler {
	return &SettingsHandler{renderer: renderer{settings: sp}}
}

func (h *SettingsHandler) Show(w http.ResponseWriter, r *http.Request) {
	cur := h.settings.Current()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, cur)
		return
	}
	h.html(w, r, http.StatusOK, "settings.html", map[string]any{"Form": cur})
}

// Update replaces the whole profile; fields left out are cleared.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	err := decode(w, r, &next)
	if err == nil {
		err = h.settings.Update(r.Context(), next)
	}
	if err != nil {
		if v := violations(err); v != nil && !httpx.WantsJSON(r) {
			h.html(w, r, http.StatusUnprocessableEntity, "settings.html", map[string]any{
				"Form":   next,
				"Errors": v,
				"Error":  apperr.Code(err),
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, h.settings.Current())
		return
	}
	middleware.Flash(w, r, "saved")
	redirect(w, r, "/settings")
}
