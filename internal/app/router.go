package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molaris/molaris/internal/catalog"
	"github.com/molaris/molaris/internal/invoices"
	"github.com/molaris/molaris/internal/neak"
	"github.com/molaris/molaris/internal/observability"
	"github.com/molaris/molaris/internal/odontogram"
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/quotes"
	"github.com/molaris/molaris/internal/settings"
	"github.com/molaris/molaris/internal/staff"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	StaffService      *staff.Service
	StaffHandler      *staff.Handler
	PatientsHandler   *patients.Handler
	OdontogramHandler *odontogram.Handler
	CatalogHandler    *catalog.Handler
	QuotesHandler     *quotes.Handler
	InvoicesHandler   *invoices.Handler
	NEAKHandler       *neak.Handler
	SettingsHandler   *settings.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything under /api/v1 except the
// login endpoint requires a bearer session; catalog mutation, settings
// updates and staff management are additionally admin-gated.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		params.StaffHandler.MountAuthRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.StaffService.Authenticate)

			params.StaffHandler.MountRoutes(r)
			params.PatientsHandler.MountRoutes(r)
			params.OdontogramHandler.MountRoutes(r)
			params.QuotesHandler.MountRoutes(r)
			params.InvoicesHandler.MountRoutes(r)
			params.NEAKHandler.MountRoutes(r)
			params.CatalogHandler.MountRoutes(r)
			params.SettingsHandler.MountRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(staff.RequireRole(staff.RoleAdmin))
				params.CatalogHandler.MountAdminRoutes(r)
				params.SettingsHandler.MountAdminRoutes(r)
			})
		})
	})

	return r
}
