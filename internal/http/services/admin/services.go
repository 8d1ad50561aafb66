// Package admin contiene los services del dominio admin.
package admin

import (
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
)

// Deps contiene las dependencias para crear los services admin.
type Deps struct {
	Keys     *jwtx.KeyStore
	Sessions repository.SessionStore
	Audit    repository.AuditSink
}

// Services agrupa todos los services del dominio admin.
type Services struct {
	Keys     KeysService
	Sessions SessionsService
}

// NewServices crea el agregador de services admin.
func NewServices(d Deps) Services {
	return Services{
		Keys: NewKeysService(KeysDeps{
			Keys:  d.Keys,
			Audit: d.Audit,
		}),
		Sessions: NewSessionsService(SessionsDeps{
			Sessions: d.Sessions,
			Audit:    d.Audit,
		}),
	}
}
