// Package httpapi is the thin HTTP layer. It delegates to domain services
// without embedding business logic so transport concerns remain isolated.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "aurum/pkg/platform/middleware/auth"
	requestmw "aurum/pkg/platform/middleware/request"
	"aurum/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every slice handler.
type Registrar interface {
	Register(r chi.Router)
}

// Deps collects everything the router mounts.
type Deps struct {
	Logger       *slog.Logger
	JWTValidator authmw.JWTValidator
	Gatherer     prometheus.Gatherer

	Ledger     Registrar
	Custody    Registrar
	Settlement Registrar
	VaultReg   Registrar
	Audit      Registrar
}

// NewRouter wires all endpoints. The API surface sits behind JWT auth;
// health and metrics do not.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestmw.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(api chi.Router) {
		if d.JWTValidator != nil {
			api.Use(authmw.RequireAuth(d.JWTValidator, d.Logger))
		}
		api.Route("/ledger", d.Ledger.Register)
		api.Route("/custody", d.Custody.Register)
		api.Route("/settlement", d.Settlement.Register)
		api.Route("/registry", d.VaultReg.Register)
		api.Route("/audit", d.Audit.Register)
	})

	return r
}
