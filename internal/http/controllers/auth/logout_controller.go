package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// LogoutController maneja POST /v2/auth/logout.
type LogoutController struct {
	service svc.LogoutService
	cookies helpers.CookieConfig
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(service svc.LogoutService, cookies helpers.CookieConfig) *LogoutController {
	return &LogoutController{service: service, cookies: cookies}
}

// Logout maneja POST /v2/auth/logout
//
// Siempre responde 204 y limpia cookies: logout es idempotente y best-effort.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.LogoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}

	raw := helpers.RefreshTokenFromRequest(r, c.cookies, req.RefreshToken)

	if req.All {
		if _, err := c.service.LogoutAll(ctx, raw); err != nil {
			log.Error("logout-all failed", logger.Err(err))
		}
	} else {
		if err := c.service.Logout(ctx, raw); err != nil {
			log.Error("logout failed", logger.Err(err))
		}
	}

	for _, ck := range helpers.BuildDeletionCookies(c.cookies) {
		http.SetCookie(w, ck)
	}
	w.WriteHeader(http.StatusNoContent)
}
