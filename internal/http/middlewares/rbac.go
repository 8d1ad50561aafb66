package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/http/errors"
)

// =================================================================================
// RBAC MIDDLEWARES
// =================================================================================

// RequirePermission resuelve los permisos efectivos del subject autenticado y
// exige el permiso dado. El comodín "*" en el conjunto efectivo concede todo.
// Los permisos se resuelven en cada request contra el directorio; cambios de
// rol aplican sin esperar a que expire el access token.
// Debe usarse después de RequireAuth.
func RequirePermission(resolver *authz.Resolver, perm string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cl := GetClaims(r.Context())
			if cl == nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid or missing"))
				return
			}

			perms, err := resolver.Resolve(r.Context(), cl.SubjectID)
			if err != nil {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("could not resolve permissions"))
				return
			}
			if !authz.Allows(perms, perm) {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient permission"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
