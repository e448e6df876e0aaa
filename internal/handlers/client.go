package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/middleware"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/services"
	"github.com/diewo77/ecotrim/internal/settings"
)

type ClientHandler struct {
	renderer
	svc *services.ClientService
}

func NewClientHandler(svc *services.ClientService, sp *settings.Provider) *ClientHandler {
	return &ClientHandler{renderer: renderer{settings: sp}, svc: svc}
}

// List: GET /clients – HTML or JSON
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	p := pageFrom(r)
	clients, total, err := h.svc.List(r.Context(), query, p.Limit, p.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": total, "limit": p.Limit, "offset": p.Offset})
		return
	}
	data := map[string]any{"Clients": clients, "Query": query}
	p.into(data, total)
	h.html(w, r, http.StatusOK, "clients/index.html", data)
}

func (h *ClientHandler) New(w http.ResponseWriter, r *http.Request) {
	h.html(w, r, http.StatusOK, "clients/form.html", map[string]any{"Client": &models.Client{}, "IsNew": true})
}

// Create: POST /clients – JSON or form
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	err := decode(w, r, &c)
	if err == nil {
		c.ID = 0
		err = h.svc.Create(r.Context(), &c)
	}
	if err != nil {
		h.formError(w, r, &c, true, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, c)
		return
	}
	redirect(w, r, "/clients/"+strconv.FormatUint(uint64(c.ID), 10))
}

func (h *ClientHandler) View(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	h.html(w, r, http.StatusOK, "clients/view.html", map[string]any{"Client": c})
}

func (h *ClientHandler) Edit(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.html(w, r, http.StatusOK, "clients/form.html", map[string]any{"Client": c})
}

// Update: POST /clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := c.ID
	err = decode(w, r, c)
	if err == nil {
		c.ID = id
		err = h.svc.Update(r.Context(), c)
	}
	if err != nil {
		c.ID = id
		h.formError(w, r, c, false, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	middleware.Flash(w, r, "saved")
	redirect(w, r, "/clients/"+strconv.FormatUint(uint64(id), 10))
}

// Delete: POST /clients/{id}/delete. Clients with documents are kept.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "client")
	if err == nil {
		err = h.svc.Delete(r.Context(), id)
	}
	if errors.Is(err, apperr.ErrClientInUse) && !httpx.WantsJSON(r) {
		c, lerr := h.svc.Get(r.Context(), id)
		if lerr == nil {
			h.html(w, r, http.StatusConflict, "clients/view.html", map[string]any{"Client": c, "Error": apperr.Code(err)})
			return
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	redirect(w, r, "/clients")
}

func (h *ClientHandler) load(r *http.Request) (*models.Client, error) {
	id, err := pathID(r, "client")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id)
}

func (h *ClientHandler) formError(w http.ResponseWriter, r *http.Request, c *models.Client, isNew bool, err error) {
	v := violations(err)
	if v == nil || httpx.WantsJSON(r) {
		h.fail(w, r, err)
		return
	}
	h.html(w, r, http.StatusUnprocessableEntity, "clients/form.html", map[string]any{
		"Client": c,
		"IsNew":  isNew,
		"Errors": v,
		"Error":  apperr.Code(err),
	})
}
