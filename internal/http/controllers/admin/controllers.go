// Package admin contiene los controllers de los endpoints administrativos.
package admin

import (
	svc "github.com/dropDatabas3/shopauth/internal/http/services/admin"
)

// Controllers agrupa todos los controllers del dominio admin.
type Controllers struct {
	Keys     *KeysController
	Sessions *SessionsController
}

// NewControllers crea el agregador de controllers admin.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Keys:     NewKeysController(s.Keys),
		Sessions: NewSessionsController(s.Sessions),
	}
}
