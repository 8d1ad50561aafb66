package admin

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/shopauth/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/admin"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// KeysController maneja las rutas de administración de claves.
type KeysController struct {
	service svc.KeysService
}

// NewKeysController crea un nuevo controller de claves.
func NewKeysController(service svc.KeysService) *KeysController {
	return &KeysController{service: service}
}

// List maneja GET /v2/admin/keys
func (c *KeysController) List(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"keys": c.service.List(r.Context()),
	})
}

// Create maneja POST /v2/admin/keys
//
// El body trae material PEM. El kid resultante es determinístico sobre la
// clave pública, así que repetir el upload es idempotente.
func (c *KeysController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.Create"))

	var req dto.UploadKeyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Upload(ctx, mw.GetSubjectID(ctx), req)
	if err != nil {
		if stderrors.Is(err, jwtx.ErrKeyUploadInvalid) {
			httperrors.WriteError(w, httperrors.ErrInvalidKeyMaterial.WithDetail(err.Error()))
			return
		}
		log.Error("key upload failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, res)
}

// Update maneja PATCH /v2/admin/keys/{kid} con body {"active": bool}
func (c *KeysController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.Update"))

	kid := strings.TrimSpace(chi.URLParam(r, "kid"))
	if kid == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("kid is required"))
		return
	}

	var req dto.UpdateKeyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("active is required"))
		return
	}

	var err error
	if *req.Active {
		err = c.service.Activate(ctx, mw.GetSubjectID(ctx), kid)
	} else {
		err = c.service.Deactivate(ctx, mw.GetSubjectID(ctx), kid)
	}
	if err != nil {
		if stderrors.Is(err, jwtx.ErrKeyNotFound) {
			httperrors.WriteError(w, httperrors.ErrKeyNotFound)
			return
		}
		log.Error("key status change failed", logger.Err(err), logger.KID(kid))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	c.writeKey(w, r, kid)
}

// Delete maneja DELETE /v2/admin/keys/{kid}
//
// Desactivación blanda: la clave deja de firmar y de publicarse en JWKS pero
// sigue verificando tokens ya emitidos. Responde 200 con el registro
// desactivado, no 204: el material se retiene.
func (c *KeysController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.Delete"))

	kid := strings.TrimSpace(chi.URLParam(r, "kid"))
	if kid == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("kid is required"))
		return
	}

	if err := c.service.Deactivate(ctx, mw.GetSubjectID(ctx), kid); err != nil {
		if stderrors.Is(err, jwtx.ErrKeyNotFound) {
			httperrors.WriteError(w, httperrors.ErrKeyNotFound)
			return
		}
		log.Error("key deactivation failed", logger.Err(err), logger.KID(kid))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	c.writeKey(w, r, kid)
}

func (c *KeysController) writeKey(w http.ResponseWriter, r *http.Request, kid string) {
	for _, k := range c.service.List(r.Context()) {
		if k.KID == kid {
			helpers.WriteJSON(w, http.StatusOK, k)
			return
		}
	}
	httperrors.WriteError(w, httperrors.ErrKeyNotFound)
}
