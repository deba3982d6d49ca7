package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/caseflow-app/caseflow/internal/assignment"
	"github.com/caseflow-app/caseflow/internal/auth"
	"github.com/caseflow-app/caseflow/internal/authz"
	"github.com/caseflow-app/caseflow/internal/catalog"
	"github.com/caseflow-app/caseflow/internal/observability"
	"github.com/caseflow-app/caseflow/internal/roles"
	"github.com/caseflow-app/caseflow/internal/shared"
	"github.com/caseflow-app/caseflow/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	AuthHandler       *auth.Handler
	CatalogHandler    *catalog.Handler
	RolesHandler      *roles.Handler
	AssignmentHandler *assignment.Handler
	UsersHandler      *users.Handler
	AuthzMiddleware   authz.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Caseflow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"app":"caseflow","status":"ready"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"app":"caseflow","status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// The admin surface is guarded per-request: the HTTP verb selects the
	// action and the decision engine resolves it against the route.
	r.Route("/admin", func(r chi.Router) {
		r.Use(params.AuthzMiddleware.RequireByMethod())
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.AssignmentHandler != nil {
			params.AssignmentHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
