package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
)

// registerAuthRoutes registra los endpoints públicos y autenticados de auth.
func registerAuthRoutes(r chi.Router, deps Deps) {
	c := deps.AuthControllers

	// POST /v2/auth/login (rate-limited por IP)
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		if deps.LoginLimiter != nil {
			g.Use(mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: deps.LoginLimiter,
				KeyFunc: mw.IPOnlyRateKey,
			}))
		}
		g.Post("/v2/auth/login", c.Login.Login)
	})

	// POST /v2/auth/refresh y logout (rate-limited por IP+path)
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		if deps.RefreshLimiter != nil {
			g.Use(mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: deps.RefreshLimiter,
				KeyFunc: mw.IPPathRateKey,
			}))
		}
		g.Post("/v2/auth/refresh", c.Refresh.Refresh)
		g.Post("/v2/auth/logout", c.Logout.Logout)
	})

	// GET /v2/me (requiere auth)
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		g.Use(mw.RequireAuth(deps.Verifier))
		g.Get("/v2/me", c.Me.Me)
	})
}
