package auth

import (
	stderrors "errors"
	"net/http"

	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// MeController maneja GET /v2/me.
type MeController struct {
	service svc.MeService
}

// NewMeController crea un nuevo controller de me.
func NewMeController(service svc.MeService) *MeController {
	return &MeController{service: service}
}

// Me maneja GET /v2/me (requiere auth)
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	sub := mw.GetSubjectID(ctx)
	if sub == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	res, err := c.service.Me(ctx, sub)
	if err != nil {
		if stderrors.Is(err, svc.ErrSubjectNotFound) {
			// El token es válido pero el usuario ya no existe.
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		log.Error("me lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, res)
}
