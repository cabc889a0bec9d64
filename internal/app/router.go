package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/fcgregorio/jbj-trading/internal/auth"
	"github.com/fcgregorio/jbj-trading/internal/catalog/categories"
	"github.com/fcgregorio/jbj-trading/internal/catalog/items"
	"github.com/fcgregorio/jbj-trading/internal/catalog/units"
	"github.com/fcgregorio/jbj-trading/internal/ledger"
	"github.com/fcgregorio/jbj-trading/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	UnitsHandler      *units.Handler
	CategoriesHandler *categories.Handler
	ItemsHandler      *items.Handler
	LedgerHandler     *ledger.Handler
	UsersHandler      *users.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	loginLimit := 10
	loginWindow := time.Minute
	if params.Config != nil {
		if params.Config.LoginRateLimit > 0 {
			loginLimit = params.Config.LoginRateLimit
		}
		if params.Config.LoginRateWindow > 0 {
			loginWindow = params.Config.LoginRateWindow
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(loginLimit, loginWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.AuthHandler.MountPublic(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(params.AuthService))

			params.AuthHandler.MountProtected(r)

			r.Route("/units", params.UnitsHandler.MountRoutes)
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
			r.Route("/items", params.ItemsHandler.MountRoutes)
			r.Route("/in-transactions", params.LedgerHandler.MountInbound)
			r.Route("/out-transactions", params.LedgerHandler.MountOutbound)
			r.Route("/transactions", params.LedgerHandler.MountMovements)
			r.Route("/transfers", params.LedgerHandler.MountTransfers)

			r.Route("/users", func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				params.UsersHandler.MountRoutes(r)
			})
		})
	})

	return r
}
