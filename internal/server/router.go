package server

import (
	"fmt"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/httpx"
	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/handlers"
	"github.com/diewo77/ecotrim/internal/metrics"
	"github.com/diewo77/ecotrim/internal/middleware"
	"github.com/diewo77/ecotrim/internal/repository"
	"github.com/diewo77/ecotrim/internal/services"
	"github.com/diewo77/ecotrim/internal/settings"
	"github.com/diewo77/ecotrim/view"
)

// Deps are the long-lived components the routes are built from.
type Deps struct {
	DB       *gorm.DB
	Settings *settings.Provider
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	view.SetLangResolver(middleware.LangFrom)

	clientRepo := repository.NewClientRepository(d.DB)
	docRepo := repository.NewDocumentRepository(d.DB)
	expenseRepo := repository.NewExpenseRepository(d.DB)

	clientSvc := services.NewClientService(clientRepo, d.Logger)
	docSvc := services.NewDocumentService(docRepo, clientRepo, d.Settings, d.Metrics, d.Logger)
	expenseSvc := services.NewExpenseService(expenseRepo, d.Logger)
	dashSvc := services.NewDashboardService(docRepo, expenseRepo)

	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	dh := handlers.NewDashboardHandler(dashSvc, d.Settings)
	mux.HandleFunc("GET /dashboard", dh.Show)
	mux.HandleFunc("GET /api/dashboard", dh.Show)

	ch := handlers.NewClientHandler(clientSvc, d.Settings)
	mux.HandleFunc("GET /clients", ch.List)
	mux.HandleFunc("GET /clients/new", ch.New)
	mux.HandleFunc("POST /clients", ch.Create)
	mux.HandleFunc("GET /clients/{id}", ch.View)
	mux.HandleFunc("GET /clients/{id}/edit", ch.Edit)
	mux.HandleFunc("POST /clients/{id}", ch.Update)
	mux.HandleFunc("POST /clients/{id}/delete", ch.Delete)
	mux.HandleFunc("GET /api/clients", ch.List)
	mux.HandleFunc("POST /api/clients", ch.Create)

	for _, kind := range []billing.Kind{billing.KindQuote, billing.KindInvoice} {
		h := handlers.NewDocumentHandler(kind, docSvc, clientSvc, d.Settings)
		base := h.Base()
		mux.HandleFunc("GET "+base, h.List)
		mux.HandleFunc("GET "+base+"/new", h.New)
		mux.HandleFunc("POST "+base, h.Create)
		mux.HandleFunc("GET "+base+"/{id}", h.View)
		mux.HandleFunc("POST "+base+"/{id}/delete", h.Delete)
		mux.HandleFunc("GET /api"+base, h.List)
		mux.HandleFunc("POST /api"+base, h.Create)
		mux.HandleFunc("GET /api"+base+"/{id}", h.View)
		if kind == billing.KindInvoice {
			mux.HandleFunc("POST "+base+"/{id}/toggle-status", h.ToggleStatus)
			mux.HandleFunc("POST /api"+base+"/{id}/toggle-status", h.ToggleStatus)
		}
	}

	eh := handlers.NewExpenseHandler(expenseSvc, d.Settings)
	mux.HandleFunc("GET /expenses", eh.List)
	mux.HandleFunc("POST /expenses", eh.Create)
	mux.HandleFunc("POST /expenses/{id}/delete", eh.Delete)
	mux.HandleFunc("GET /api/expenses", eh.List)
	mux.HandleFunc("POST /api/expenses", eh.Create)

	sh := handlers.NewSettingsHandler(d.Settings)
	mux.HandleFunc("GET /settings", sh.Show)
	mux.HandleFunc("POST /settings", sh.Update)
	mux.HandleFunc("GET /api/settings", sh.Show)

	var h http.Handler = mux
	h = gorillahandlers.CompressHandler(h)
	h = middleware.Logging(d.Logger, d.Metrics)(h)
	h = middleware.Prefs(h)
	h = gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(recoveryLogger{d.Logger}),
		gorillahandlers.PrintRecoveryStack(false),
	)(h)
	return gorillahandlers.ProxyHeaders(h)
}

type recoveryLogger struct{ l *zap.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.l.Error("panic recovered", zap.String("panic", fmt.Sprint(v...)), zap.Stack("stack"))
}
