package view

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/settings"
)

func render(t *testing.T, name string, data map[string]any) string {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), name, data); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return rec.Body.String()
}

func TestRenderInvoice(t *testing.T) {
	ResetForTests()
	doc := &models.Document{
		ID:        1,
		Kind:      billing.KindInvoice,
		Number:    "ECX-792",
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Client:    &models.Client{Name: "Gitabayu Property Services Sdn Bhd", CustID: "93385"},
		Status:    billing.StatusUnpaid,
		Terms:     "Balance due upon completion.",
		Items: []models.DocumentItem{
			{Description: "Grass cutting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1500)},
			{Description: "Hedge trimming", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)},
		},
	}
	doc.ApplyTotals()
	s := settings.Defaults()
	body := render(t, "documents/view.html", map[string]any{"Doc": doc, "Settings": &s, "Base": "/invoices"})

	for _, want := range []string{"ECX-792", "RM 2,500.00", "Gitabayu Property Services Sdn Bhd", "Cust ID: 93385", "MAYBANK: 564762369335", "Mark as paid"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestRenderPages(t *testing.T) {
	ResetForTests()
	s := settings.Defaults()
	pages := map[string]map[string]any{
		"dashboard.html":     {},
		"clients/index.html": {"Clients": []models.Client{{ID: 1, Name: "Gitabayu"}}, "Query": ""},
		"clients/form.html":  {"Client": &models.Client{}, "IsNew": true, "Errors": map[string]string{"name": "required"}},
		"documents/index.html": {
			"Plural":   "quotes",
			"Base":     "/quotes",
			"Status":   "",
			"Statuses": []billing.Status{billing.StatusPending},
		},
		"expenses.html": {
			"Input":      struct{ Date, Description, Category string; Amount decimal.Decimal }{},
			"Categories": models.ExpenseCategories(),
			"Category":   "",
			"Total":      decimal.Zero,
		},
		"settings.html": {"Form": s, "Settings": &s},
		"error.html":    {"Status": 404, "Code": "not_found"},
	}
	for name, data := range pages {
		body := render(t, name, data)
		if !strings.Contains(body, "<html") {
			t.Errorf("%s: layout not applied", name)
		}
	}
}

func TestUnknownTemplate(t *testing.T) {
	err := Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "nope.html", nil)
	if !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}
}

func TestLanguageIsPerRequest(t *testing.T) {
	ResetForTests()
	SetLangResolver(func(r *http.Request) string { return r.URL.Query().Get("lang") })
	t.Cleanup(func() { SetLangResolver(func(*http.Request) string { return "en" }) })

	for lang, want := range map[string]string{"en": "Settings", "ms": "Tetapan"} {
		rec := httptest.NewRecorder()
		data := map[string]any{"Form": settings.Defaults()}
		if err := Render(rec, httptest.NewRequest(http.MethodGet, "/settings?lang="+lang, nil), "settings.html", data); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: missing %q", lang, want)
		}
	}
}
