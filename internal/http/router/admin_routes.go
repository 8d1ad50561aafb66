package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/shopauth/internal/authz"
	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
)

// registerAdminRoutes registra la superficie administrativa bajo RBAC.
func registerAdminRoutes(r chi.Router, deps Deps) {
	c := deps.AdminControllers

	r.Route("/v2/admin", func(g chi.Router) {
		g.Use(mw.WithNoStore())
		g.Use(mw.RequireAuth(deps.Verifier))

		// Claves de firma
		g.Group(func(k chi.Router) {
			k.Use(mw.RequirePermission(deps.Resolver, authz.PermAdminKeys))
			k.Get("/keys", c.Keys.List)
			k.Post("/keys", c.Keys.Create)
			k.Patch("/keys/{kid}", c.Keys.Update)
			k.Delete("/keys/{kid}", c.Keys.Delete)
		})

		// Sesiones por usuario
		g.Group(func(s chi.Router) {
			s.Use(mw.RequirePermission(deps.Resolver, authz.PermAdminSessions))
			s.Get("/users/{id}/sessions", c.Sessions.List)
			s.Delete("/users/{id}/sessions", c.Sessions.RevokeAll)
			s.Delete("/users/{id}/sessions/{jti}", c.Sessions.Revoke)
		})
	})
}
