// Package auth contiene los controllers de los endpoints de autenticación.
package auth

import (
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
)

// ControllerDeps contiene configuración adicional para los controllers.
type ControllerDeps struct {
	Cookies helpers.CookieConfig
}

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Logout  *LogoutController
	Me      *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, deps ControllerDeps) *Controllers {
	return &Controllers{
		Login:   NewLoginController(s.Login, deps.Cookies),
		Refresh: NewRefreshController(s.Refresh, deps.Cookies),
		Logout:  NewLogoutController(s.Logout, deps.Cookies),
		Me:      NewMeController(s.Me),
	}
}
