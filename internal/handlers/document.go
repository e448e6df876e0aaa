package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/repository"
	"github.com/diewo77/ecotrim/internal/services"
	"github.com/diewo77/ecotrim/internal/settings"
)

// blankRows is how many empty item rows a new document form offers.
const blankRows = 5

// DocumentHandler serves quotes or invoices, depending on kind, in the
// dual-format pattern used elsewhere.
type DocumentHandler struct {
	renderer
	kind    billing.Kind
	docs    *services.DocumentService
	clients *services.ClientService
	now     func() time.Time
}

func NewDocumentHandler(kind billing.Kind, docs *services.DocumentService, clients *services.ClientService, sp *settings.Provider) *DocumentHandler {
	return &DocumentHandler{renderer: renderer{settings: sp}, kind: kind, docs: docs, clients: clients, now: time.Now}
}

// Base is the HTML path prefix: /quotes or /invoices.
func (h *DocumentHandler) Base() string { return "/" + h.plural() }

func (h *DocumentHandler) plural() string { return string(h.kind) + "s" }

func (h *DocumentHandler) statuses() []billing.Status {
	if h.kind == billing.KindQuote {
		return []billing.Status{billing.StatusPending}
	}
	return []billing.Status{billing.StatusUnpaid, billing.StatusPaid}
}

func (h *DocumentHandler) pageData(data map[string]any) map[string]any {
	data["Base"] = h.Base()
	data["Plural"] = h.plural()
	return data
}

// List: GET /quotes, GET /api/quotes
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r)
	period, err := periodFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := repository.DocumentQuery{
		Kind:   h.kind,
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Status: billing.Status(r.URL.Query().Get("status")),
		Period: period,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	docs, total, err := h.docs.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": docs, "total": total, "limit": p.Limit, "offset": p.Offset})
		return
	}
	data := h.pageData(map[string]any{
		"Documents": docs,
		"Query":     q.Search,
		"Status":    string(q.Status),
		"Statuses":  h.statuses(),
	})
	p.into(data, total)
	h.html(w, r, http.StatusOK, "documents/index.html", data)
}

// New: GET /quotes/new. The form is prefilled with today, the default terms
// and, for quotes, a validity of 30 days.
func (h *DocumentHandler) New(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	d := services.Draft{Date: today.Format("2006-01-02")}
	if h.kind == billing.KindQuote {
		d.ValidUntil = today.AddDate(0, 0, 30).Format("2006-01-02")
	}
	if id, err := strconv.ParseUint(r.URL.Query().Get("client_id"), 10, 32); err == nil {
		d.ClientID = uint(id)
	}
	if h.settings != nil {
		d.Terms = h.settings.Current().Terms
	}
	h.form(w, r, http.StatusOK, d, nil, "")
}

func (h *DocumentHandler) form(w http.ResponseWriter, r *http.Request, status int, d services.Draft, errs map[string]string, code string) {
	clients, err := h.clients.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	for len(d.Items) < blankRows {
		d.Items = append(d.Items, services.DraftItem{})
	}
	data := h.pageData(map[string]any{"Draft": d, "Clients": clients, "Errors": errs})
	if code != "" {
		data["Error"] = code
	}
	h.html(w, r, status, "documents/form.html", data)
}

// Create: POST /quotes, POST /api/quotes (JSON or form)
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d services.Draft
	if err := decode(w, r, &d); err != nil {
		h.createFailed(w, r, d, err)
		return
	}
	if !httpx.IsJSONBody(r) {
		d.Items = withoutBlankItems(d.Items)
	}
	if h.kind == billing.KindInvoice {
		d.ValidUntil = ""
	}
	created, err := h.docs.Create(r.Context(), h.kind, d)
	if err != nil {
		h.createFailed(w, r, d, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, created)
		return
	}
	redirect(w, r, h.Base()+"/"+strconv.FormatUint(uint64(created.ID), 10))
}

func (h *DocumentHandler) createFailed(w http.ResponseWriter, r *http.Request, d services.Draft, err error) {
	v := violations(err)
	if v == nil || httpx.WantsJSON(r) {
		h.fail(w, r, err)
		return
	}
	h.form(w, r, http.StatusUnprocessableEntity, d, v, apperr.Code(err))
}

// withoutBlankItems drops the unused rows of the HTML form.
func withoutBlankItems(items []services.DraftItem) []services.DraftItem {
	out := items[:0]
	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" && it.Quantity.IsZero() && it.UnitPrice.IsZero() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// View: GET /quotes/{id}
func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, string(h.kind))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.docs.Get(r.Context(), h.kind, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, doc)
		return
	}
	h.html(w, r, http.StatusOK, "documents/view.html", h.pageData(map[string]any{"Doc": doc}))
}

// Delete: POST /quotes/{id}/delete
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, string(h.kind))
	if err == nil {
		err = h.docs.Delete(r.Context(), h.kind, id)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	redirect(w, r, h.Base())
}

// ToggleStatus: POST /invoices/{id}/toggle-status
func (h *DocumentHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	if h.kind != billing.KindInvoice {
		h.fail(w, r, apperr.ErrInvalidTransition)
		return
	}
	id, err := pathID(r, string(h.kind))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.docs.ToggleStatus(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, doc)
		return
	}
	redirect(w, r, h.Base()+"/"+strconv.FormatUint(uint64(doc.ID), 10))
}
