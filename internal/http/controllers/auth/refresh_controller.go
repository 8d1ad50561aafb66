package auth

import (
	stderrors "errors"
	"net/http"

	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// RefreshController maneja POST /v2/auth/refresh.
type RefreshController struct {
	service svc.RefreshService
	cookies helpers.CookieConfig
}

// NewRefreshController crea un nuevo controller de refresh.
func NewRefreshController(service svc.RefreshService, cookies helpers.CookieConfig) *RefreshController {
	return &RefreshController{service: service, cookies: cookies}
}

// Refresh maneja POST /v2/auth/refresh
//
// El refresh token se toma primero de la cookie y, si no está, del body JSON.
// Cualquier rechazo responde el mismo 401 genérico: el cliente no debe poder
// distinguir entre token expirado, revocado o reusado.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.RefreshRequest
	// Body opcional: clientes browser mandan solo la cookie.
	if r.Body != nil && r.ContentLength != 0 {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}

	raw := helpers.RefreshTokenFromRequest(r, c.cookies, req.RefreshToken)

	res, err := c.service.Refresh(ctx, raw, clientMeta(r))
	if err != nil {
		switch {
		case stderrors.Is(err, svc.ErrMissingRefreshToken):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token is required"))
		case stderrors.Is(err, svc.ErrInvalidRefreshToken):
			httperrors.WriteError(w, httperrors.ErrSessionInvalid)
		default:
			log.Error("refresh failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	writeTokenPair(w, c.cookies, res)
}
