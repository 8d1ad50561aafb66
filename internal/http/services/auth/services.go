// Package auth contiene los services del dominio auth.
package auth

import (
	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
)

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Issuer      *jwtx.Issuer
	Verifier    *jwtx.Verifier
	Sessions    repository.SessionStore
	Credentials repository.CredentialVerifier
	Principals  repository.PrincipalStore
	Resolver    *authz.Resolver
	Audit       repository.AuditSink
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Login   LoginService
	Refresh RefreshService
	Logout  LogoutService
	Me      MeService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	return Services{
		Login: NewLoginService(LoginDeps{
			Issuer:      d.Issuer,
			Credentials: d.Credentials,
		}),
		Refresh: NewRefreshService(RefreshDeps{
			Verifier: d.Verifier,
			Sessions: d.Sessions,
			Audit:    d.Audit,
		}),
		Logout: NewLogoutService(LogoutDeps{
			Verifier: d.Verifier,
			Sessions: d.Sessions,
		}),
		Me: NewMeService(MeDeps{
			Principals: d.Principals,
			Resolver:   d.Resolver,
		}),
	}
}
