package admin

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/admin"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// SessionsController maneja las rutas de administración de sesiones.
type SessionsController struct {
	service svc.SessionsService
}

// NewSessionsController crea un nuevo controller de sesiones.
func NewSessionsController(service svc.SessionsService) *SessionsController {
	return &SessionsController{service: service}
}

func subjectParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// List maneja GET /v2/admin/users/{id}/sessions
func (c *SessionsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.List"))

	sub := subjectParam(r)
	if sub == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("user id is required"))
		return
	}

	sessions, err := c.service.List(ctx, sub)
	if err != nil {
		log.Error("session listing failed", logger.Err(err), logger.SubjectID(sub))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// Revoke maneja DELETE /v2/admin/users/{id}/sessions/{jti}
func (c *SessionsController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.Revoke"))

	sub := subjectParam(r)
	jti := strings.TrimSpace(chi.URLParam(r, "jti"))
	if sub == "" || jti == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("user id and jti are required"))
		return
	}

	if err := c.service.Revoke(ctx, mw.GetSubjectID(ctx), sub, jti); err != nil {
		if stderrors.Is(err, repository.ErrSessionNotFound) || stderrors.Is(err, repository.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound)
			return
		}
		log.Error("session revocation failed", logger.Err(err), logger.SubjectID(sub))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokeAll maneja DELETE /v2/admin/users/{id}/sessions
func (c *SessionsController) RevokeAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.RevokeAll"))

	sub := subjectParam(r)
	if sub == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("user id is required"))
		return
	}

	n, err := c.service.RevokeAll(ctx, mw.GetSubjectID(ctx), sub)
	if err != nil {
		log.Error("bulk session revocation failed", logger.Err(err), logger.SubjectID(sub))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RevokeAllResponse{Revoked: n})
}
