// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/shopauth/internal/authz"
	adminctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/auth"
	"github.com/dropDatabas3/shopauth/internal/http/controllers/discovery"
	healthctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/rate"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	AuthControllers  *authctrl.Controllers
	AdminControllers *adminctrl.Controllers
	JWKS             *discovery.JWKSController
	Health           *healthctrl.HealthController

	Verifier *jwtx.Verifier
	Resolver *authz.Resolver

	// Limiters opcionales: nil desactiva el rate limiting del grupo.
	LoginLimiter   rate.Limiter
	RefreshLimiter rate.Limiter
}

// New construye el router HTTP principal.
//
// El tipo mw.Middleware es func(http.Handler) http.Handler, compatible con
// chi.Router.Use sin adaptadores.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares base para todo el árbol.
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	r.Use(mw.WithLogging())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerWellKnownRoutes(r, deps)
	registerHealthRoutes(r, deps)
	registerAuthRoutes(r, deps)
	registerAdminRoutes(r, deps)

	return r
}

func registerWellKnownRoutes(r chi.Router, deps Deps) {
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		g.Get("/.well-known/jwks.json", deps.JWKS.JWKS)
	})
}

func registerHealthRoutes(r chi.Router, deps Deps) {
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
}
