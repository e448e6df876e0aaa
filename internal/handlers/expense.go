package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/services"
	"github.com/diewo77/ecotrim/internal/settings"
)

type ExpenseHandler struct {
	renderer
	svc *services.ExpenseService
}

func NewExpenseHandler(svc *services.ExpenseService, sp *settings.Provider) *ExpenseHandler {
	return &ExpenseHandler{renderer: renderer{settings: sp}, svc: svc}
}

// List: GET /expenses?category=Fuel&from=&to=
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, http.StatusOK, services.ExpenseInput{Date: time.Now().Format("2006-01-02"), Category: string(models.ExpenseFuel)}, nil, "")
}

func (h *ExpenseHandler) list(w http.ResponseWriter, r *http.Request, status int, in services.ExpenseInput, errs map[string]string, code string) {
	category := r.URL.Query().Get("category")
	period, err := periodFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	expenses, err := h.svc.List(r.Context(), category, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	if httpx.WantsJSON(r) {
		_, byCategory, err := h.svc.Totals(r.Context(), period)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": expenses, "total": total, "by_category": byCategory})
		return
	}
	data := map[string]any{
		"Expenses":   expenses,
		"Total":      total,
		"Category":   category,
		"Categories": models.ExpenseCategories(),
		"From":       r.URL.Query().Get("from"),
		"To":         r.URL.Query().Get("to"),
		"Input":      in,
		"Errors":     errs,
	}
	if code != "" {
		data["Error"] = code
	}
	h.html(w, r, status, "expenses.html", data)
}

// Create: POST /expenses – JSON or form
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ExpenseInput
	err := decode(w, r, &in)
	var e *models.Expense
	if err == nil {
		e, err = h.svc.Create(r.Context(), in)
	}
	if err != nil {
		if v := violations(err); v != nil && !httpx.WantsJSON(r) {
			h.list(w, r, http.StatusUnprocessableEntity, in, v, apperr.Code(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, e)
		return
	}
	redirect(w, r, "/expenses")
}

// Delete: POST /expenses/{id}/delete
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "expense")
	if err == nil {
		err = h.svc.Delete(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	redirect(w, r, "/expenses")
}
